package latex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Entry is one token/content pair of a PlaceholderMap.
type Entry struct {
	Token   string `json:"token"`
	Content string `json:"content"`
}

// PlaceholderMap maps placeholder tokens to segment contents and remembers the
// order tokens were first set in. The zero value is an empty map ready to use.
type PlaceholderMap struct {
	keys []string
	vals map[string]string
}

// NewPlaceholderMap builds a map from entries; a repeated token keeps its
// first position and its last content.
func NewPlaceholderMap(entries ...Entry) PlaceholderMap {
	var m PlaceholderMap
	for _, e := range entries {
		m.Set(e.Token, e.Content)
	}
	return m
}

func (m *PlaceholderMap) Set(token, content string) {
	if m.vals == nil {
		m.vals = make(map[string]string)
	}
	if _, ok := m.vals[token]; !ok {
		m.keys = append(m.keys, token)
	}
	m.vals[token] = content
}

func (m PlaceholderMap) Get(token string) (string, bool) {
	v, ok := m.vals[token]
	return v, ok
}

func (m PlaceholderMap) Has(token string) bool {
	_, ok := m.vals[token]
	return ok
}

func (m PlaceholderMap) Len() int { return len(m.keys) }

// Tokens returns the tokens in insertion order.
func (m PlaceholderMap) Tokens() []string { return slices.Clone(m.keys) }

// Entries returns the pairs in insertion order.
func (m PlaceholderMap) Entries() []Entry {
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{Token: k, Content: m.vals[k]})
	}
	return out
}

// Clone returns an independent copy.
func (m PlaceholderMap) Clone() PlaceholderMap {
	return NewPlaceholderMap(m.Entries()...)
}

// tokensByLength returns the non-empty tokens, longest first.
func (m PlaceholderMap) tokensByLength() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}

// MarshalJSON encodes the map as an ordered array of entries.
func (m PlaceholderMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Entries())
}

// UnmarshalJSON accepts either an array of entries or a JSON object; object
// keys keep the order they appear in the document.
func (m *PlaceholderMap) UnmarshalJSON(data []byte) error {
	*m = PlaceholderMap{}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*m = NewPlaceholderMap(entries...)
		return nil
	case data[0] == '{':
		return m.decodeObject(data)
	default:
		return errors.New("placeholder map: expected array or object")
	}
}

func (m *PlaceholderMap) decodeObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // {
		return err
	}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("placeholder map: unexpected key %v", t)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("placeholder map: value for %q: %w", key, err)
		}
		m.Set(key, val)
	}
	_, err := dec.Token() // }
	return err
}

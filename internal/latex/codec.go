// Package latex splits question text into placeholder tokens and the
// $...$ math segments they stand for, and puts them back together.
package latex

import (
	"regexp"
	"strconv"
	"strings"
)

const Delim = "$"

// TokenPrefix starts every generated placeholder (F1, F2, ...).
const TokenPrefix = "F"

// lazy: a $ pairs with the nearest following $
var segmentRe = regexp.MustCompile(`\$(.*?)\$`)

// Segment is one $...$ span found in a source text.
type Segment struct {
	Order   int    `json:"order"`
	Token   string `json:"token"`
	Content string `json:"content"`
	Start   int    `json:"start"` // byte offset of the opening $
	End     int    `json:"end"`   // byte offset just past the closing $
}

// Extraction is the result of Extract.
type Extraction struct {
	Source   string         `json:"source"`
	Modified string         `json:"modified"`
	Map      PlaceholderMap `json:"map"`
	Segments []Segment      `json:"segments"`
}

// Placeholder returns the token for the i-th segment (1-based).
func Placeholder(i int) string { return TokenPrefix + strconv.Itoa(i) }

// Extract replaces every $...$ segment of text with its positional placeholder.
// An unmatched trailing $ is left alone. Extract never fails.
func Extract(text string) Extraction {
	ex := Extraction{Source: text, Modified: text}
	locs := segmentRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return ex
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for i, loc := range locs {
		seg := Segment{
			Order:   i + 1,
			Token:   Placeholder(i + 1),
			Content: text[loc[2]:loc[3]],
			Start:   loc[0],
			End:     loc[1],
		}
		b.WriteString(text[prev:seg.Start])
		b.WriteString(seg.Token)
		prev = seg.End

		ex.Map.Set(seg.Token, seg.Content)
		ex.Segments = append(ex.Segments, seg)
	}
	b.WriteString(text[prev:])
	ex.Modified = b.String()
	return ex
}

// Render rebuilds the source from the recorded spans, taking segment contents
// from edits where present. Literal F<digits> in the source is never touched.
func (ex Extraction) Render(edits PlaceholderMap) string {
	if len(ex.Segments) == 0 {
		return ex.Source
	}
	var b strings.Builder
	prev := 0
	for _, seg := range ex.Segments {
		b.WriteString(ex.Source[prev:seg.Start])
		content := seg.Content
		if v, ok := edits.Get(seg.Token); ok {
			content = v
		}
		b.WriteString(Delim + content + Delim)
		prev = seg.End
	}
	b.WriteString(ex.Source[prev:])
	return b.String()
}

// Reconstruct substitutes every placeholder in modified with its content from m,
// wrapped in $ delimiters. The text is scanned once, left to right; inserted
// contents are never rescanned, so a segment containing "F1" cannot be
// substituted twice. Where several tokens match at one position (F1 and F12)
// the longest wins. Text matching no token stays verbatim.
func Reconstruct(modified string, m PlaceholderMap) string {
	if m.Len() == 0 || modified == "" {
		return modified
	}
	tokens := m.tokensByLength()

	var b strings.Builder
	b.Grow(len(modified))
	i := 0
outer:
	for i < len(modified) {
		for _, tok := range tokens {
			if strings.HasPrefix(modified[i:], tok) {
				v, _ := m.Get(tok)
				b.WriteString(Delim + v + Delim)
				i += len(tok)
				continue outer
			}
		}
		b.WriteByte(modified[i])
		i++
	}
	return b.String()
}

// LegacyReconstruct replaces tokens by value in map order, all occurrences at a
// time. F1 is processed before F10 and content inserted earlier is rescanned,
// so collisions are possible. Use Reconstruct unless byte-for-byte parity with
// older stored questions is needed.
func LegacyReconstruct(modified string, m PlaceholderMap) string {
	for _, e := range m.Entries() {
		modified = strings.ReplaceAll(modified, e.Token, Delim+e.Content+Delim)
	}
	return modified
}

// Inline returns the contents of the $...$ segments of text, in order.
// Answer options use it for previews.
func Inline(text string) []string {
	matches := segmentRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

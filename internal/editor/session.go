// Package editor holds the state of one question-authoring form: the question
// text, its extracted math segments, the author's edits to them, and the four
// answer options.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mind-engage/mindengage-qbank/internal/latex"
	"github.com/mind-engage/mindengage-qbank/internal/question"
)

var (
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	ErrUnknownLabel       = errors.New("unknown answer label")
)

// Session is safe for concurrent use.
type Session struct {
	ID    string
	Owner string // subject that opened it

	mu       sync.Mutex
	text     string
	ex       latex.Extraction
	edits    latex.PlaceholderMap
	answers  map[string]string
	lastSave int64

	// unix nanos; read by the sweeper without taking mu
	touched atomic.Int64
}

func NewSession(id, owner string) *Session {
	s := &Session{ID: id, Owner: owner}
	s.resetLocked()
	return s
}

// SegmentView is one editable math segment.
type SegmentView struct {
	Token    string `json:"token"`
	Original string `json:"original"`
	Content  string `json:"content"`
}

// AnswerView is one answer option with the math found in it.
type AnswerView struct {
	Label string   `json:"label"`
	Text  string   `json:"text"`
	Math  []string `json:"math,omitempty"`
}

// View is a snapshot of the form.
type View struct {
	ID        string        `json:"id"`
	Question  string        `json:"question"`
	Modified  string        `json:"modified"`
	Segments  []SegmentView `json:"segments"`
	Final     string        `json:"final"`
	Answers   []AnswerView  `json:"answers"`
	LastSaved int64         `json:"last_saved_id,omitempty"`
}

// SetQuestion replaces the question text. Segments are extracted afresh and
// any earlier edits are dropped.
func (s *Session) SetQuestion(text string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setQuestionLocked(text)
	return s.viewLocked()
}

func (s *Session) setQuestionLocked(text string) {
	s.text = text
	s.ex = latex.Extract(text)
	s.edits = s.ex.Map.Clone()
	s.touch()
}

// EditSegment changes the content of one extracted segment.
func (s *Session) EditSegment(token, content string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.edits.Has(token) {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownPlaceholder, token)
	}
	s.edits.Set(token, content)
	s.touch()
	return s.viewLocked(), nil
}

// SetAnswer sets answer option label (A..D).
func (s *Session) SetAnswer(label, text string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !question.IsLabel(label) {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	s.answers[label] = text
	s.touch()
	return s.viewLocked(), nil
}

// Apply writes the final text back as the question text and extracts it
// again, so the edited segments become the new originals.
func (s *Session) Apply() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setQuestionLocked(s.finalLocked())
	return s.viewLocked()
}

// finalLocked rebuilds from the extraction spans, not from the modified text:
// "$a$0" next to ten segments or a literal "F1" in the source would otherwise
// resolve to the wrong segment.
func (s *Session) finalLocked() string {
	return s.ex.Render(s.edits)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		ID:        s.ID,
		Question:  s.text,
		Modified:  s.ex.Modified,
		Segments:  make([]SegmentView, 0, len(s.ex.Segments)),
		Final:     s.finalLocked(),
		Answers:   make([]AnswerView, 0, len(question.Labels)),
		LastSaved: s.lastSave,
	}
	for _, seg := range s.ex.Segments {
		cur, _ := s.edits.Get(seg.Token)
		v.Segments = append(v.Segments, SegmentView{Token: seg.Token, Original: seg.Content, Content: cur})
	}
	for _, l := range question.Labels {
		a := s.answers[l]
		v.Answers = append(v.Answers, AnswerView{Label: l, Text: a, Math: latex.Inline(a)})
	}
	return v
}

// Record builds the record Submit would store.
func (s *Session) Record() question.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked()
}

func (s *Session) recordLocked() question.Question {
	return question.Question{
		Question: s.finalLocked(),
		A:        s.answers["A"],
		B:        s.answers["B"],
		C:        s.answers["C"],
		D:        s.answers["D"],
	}
}

// Submit validates the form and stores it. On success the form is cleared so
// the next question starts blank. Validation and store errors leave the form
// as it was.
func (s *Session) Submit(ctx context.Context, store question.Store) (question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate what the author typed, then what will be stored
	if err := question.Validate(question.Question{
		Question: s.text, A: s.answers["A"], B: s.answers["B"], C: s.answers["C"], D: s.answers["D"],
	}); err != nil {
		return question.Question{}, err
	}
	rec := s.recordLocked()
	if err := question.Validate(rec); err != nil {
		return question.Question{}, err
	}

	saved, err := store.Create(ctx, rec)
	if err != nil {
		return question.Question{}, fmt.Errorf("save question: %w", err)
	}
	s.resetLocked()
	s.lastSave = saved.ID
	return saved, nil
}

// Reset clears the question, segments and answers.
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return s.viewLocked()
}

func (s *Session) resetLocked() {
	s.answers = map[string]string{}
	for _, l := range question.Labels {
		s.answers[l] = ""
	}
	s.setQuestionLocked("")
}

func (s *Session) touch() { s.touched.Store(time.Now().UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.touched.Load()) }

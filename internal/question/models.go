package question

import (
	"errors"
	"fmt"
	"strings"
)

// Labels are the answer options every question carries, in display order.
var Labels = []string{"A", "B", "C", "D"}

var (
	ErrNotFound      = errors.New("question not found")
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrEmptyAnswer   = errors.New("all answers (A, B, C, D) must be filled out")
)

// Question is the persisted record. Field names follow the stored document
// shape ({id, Question, A, B, C, D}).
type Question struct {
	ID       int64  `json:"id"`
	Question string `json:"Question"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
	D        string `json:"D"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Answer returns the option for label, or false for an unknown label.
func (q Question) Answer(label string) (string, bool) {
	switch label {
	case "A":
		return q.A, true
	case "B":
		return q.B, true
	case "C":
		return q.C, true
	case "D":
		return q.D, true
	}
	return "", false
}

// Answers returns the options keyed by label.
func (q Question) Answers() map[string]string {
	return map[string]string{"A": q.A, "B": q.B, "C": q.C, "D": q.D}
}

// IsLabel reports whether s is one of A..D.
func IsLabel(s string) bool {
	_, ok := Question{}.Answer(s)
	return ok
}

// Validate rejects blank question text and blank answers.
func Validate(q Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	for _, l := range Labels {
		if a, _ := q.Answer(l); strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: %s is blank", ErrEmptyAnswer, l)
		}
	}
	return nil
}

// IsValidation reports whether err came from Validate.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) || errors.Is(err, ErrEmptyAnswer)
}

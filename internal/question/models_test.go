package question

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	full := Question{Question: "$a$?", A: "1", B: "2", C: "3", D: "4"}
	if err := Validate(full); err != nil {
		t.Fatalf("Validate(full) = %v", err)
	}

	blankQ := full
	blankQ.Question = "   "
	if err := Validate(blankQ); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("blank question: got %v", err)
	}

	blankC := full
	blankC.C = "\t"
	err := Validate(blankC)
	if !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("blank answer: got %v", err)
	}
	if !IsValidation(err) {
		t.Error("IsValidation = false for a blank answer")
	}
	if err.Error() != "all answers (A, B, C, D) must be filled out: C is blank" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAnswerLabels(t *testing.T) {
	q := Question{A: "a", B: "b", C: "c", D: "d"}
	for _, l := range Labels {
		if v, ok := q.Answer(l); !ok || v != q.Answers()[l] {
			t.Errorf("Answer(%s) = %q, %v", l, v, ok)
		}
	}
	if IsLabel("E") || !IsLabel("D") {
		t.Error("IsLabel mismatch")
	}
}

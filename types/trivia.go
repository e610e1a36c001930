package types

import (
	"errors"
	"fmt"
	"strings"
)

// OptionLabels are the answer labels every trivia question carries, in display order.
var OptionLabels = [4]string{"A", "B", "C", "D"}

var (
	ErrMissingQuestion = errors.New("question text is missing")
	ErrOptionCount     = errors.New("question must have exactly four options")
	ErrCorrectLabel    = errors.New("correct answer is not one of A-D")
)

// Question is a single multiple choice trivia question produced by the LLM.
// Options are stored without their label prefix; Options[0] is A.
type Question struct {
	Text         string
	Options      []string
	CorrectLabel string
}

// Validate reports why a generated question cannot be played.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrMissingQuestion
	}
	if len(q.Options) != len(OptionLabels) {
		return fmt.Errorf("%w: got %d", ErrOptionCount, len(q.Options))
	}
	if LabelIndex(q.CorrectLabel) < 0 {
		return fmt.Errorf("%w: %q", ErrCorrectLabel, q.CorrectLabel)
	}
	return nil
}

// Option returns the option text rendered with its label, e.g. "B: Paris".
func (q Question) Option(label string) string {
	i := LabelIndex(label)
	if i < 0 || i >= len(q.Options) {
		return label
	}
	return OptionLabels[i] + ": " + q.Options[i]
}

// CorrectOption is Option for the correct label.
func (q Question) CorrectOption() string {
	return q.Option(q.CorrectLabel)
}

// LabelIndex maps A-D to 0-3 and anything else to -1.
func LabelIndex(label string) int {
	for i, l := range OptionLabels {
		if strings.EqualFold(strings.TrimSpace(label), l) {
			return i
		}
	}
	return -1
}

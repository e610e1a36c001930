package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samosabot/samosa-bot/types"
)

// ErrNoQuestions is returned when the model produced no question objects at all.
var ErrNoQuestions = errors.New("llm returned no trivia questions")

// QuestionGenerator produces a batch of trivia questions for a category.
// Individual questions may fail types.Question.Validate; callers skip those.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, category string, count int) ([]types.Question, error)
}

type rawQuestion struct {
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
}

// ParseQuestions decodes a model response into questions. The response may be a JSON
// array or an object with a "questions" array, optionally wrapped in a code fence.
// A malformed element becomes a zero-value Question in its position so the batch
// order is preserved and the caller can skip it.
func ParseQuestions(resp string) ([]types.Question, error) {
	body := CleanJSON(resp)
	if body == "" {
		return nil, ErrNoQuestions
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, fmt.Errorf("failed to decode question array: %w", err)
		}
	case '{':
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode question object: %w", err)
		}
		items = wrapped.Questions
	default:
		return nil, fmt.Errorf("llm response is not json: %.40q", body)
	}
	if len(items) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]types.Question, 0, len(items))
	for _, item := range items {
		var raw rawQuestion
		if err := json.Unmarshal(item, &raw); err != nil {
			questions = append(questions, types.Question{})
			continue
		}
		questions = append(questions, raw.toQuestion())
	}
	return questions, nil
}

func (r rawQuestion) toQuestion() types.Question {
	opts := parseOptions(r.Options)
	q := types.Question{
		Text:    CleanResponse(r.Question),
		Options: opts,
	}
	q.CorrectLabel = correctLabel(r.CorrectAnswer, opts)
	return q
}

func parseOptions(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return orderOptions(list)
	}

	var byLabel map[string]string
	if err := json.Unmarshal(raw, &byLabel); err == nil && len(byLabel) == len(types.OptionLabels) {
		out := make([]string, len(types.OptionLabels))
		for label, text := range byLabel {
			i := types.LabelIndex(label)
			if i < 0 || out[i] != "" {
				return nil
			}
			out[i] = CleanResponse(text)
		}
		return out
	}
	return nil
}

// orderOptions strips "A: " style prefixes only when every option carries a
// distinct label, and then places them by label. Otherwise the options keep
// their text and position, so answers like "C. S. Lewis" survive.
func orderOptions(list []string) []string {
	out := make([]string, len(list))
	byLabel := make([]string, len(types.OptionLabels))
	labelled := len(list) == len(types.OptionLabels)
	for i, opt := range list {
		out[i] = CleanResponse(opt)
		label, text := splitLabel(opt)
		idx := types.LabelIndex(label)
		if idx < 0 || byLabel[idx] != "" {
			labelled = false
			continue
		}
		byLabel[idx] = text
	}
	if labelled {
		return byLabel
	}
	return out
}

// splitLabel turns "B: Paris", "B) Paris" or "B. Paris" into ("B", "Paris").
func splitLabel(opt string) (string, string) {
	opt = CleanResponse(opt)
	if len(opt) >= 2 && types.LabelIndex(opt[:1]) >= 0 && strings.ContainsRune(":).", rune(opt[1])) {
		return strings.ToUpper(opt[:1]), strings.TrimSpace(opt[2:])
	}
	return "", opt
}

// correctLabel resolves the answer as a bare label, then as option text, then as
// a "B) Paris" prefix whose text matches the option at that label.
func correctLabel(answer string, opts []string) string {
	answer = CleanResponse(answer)
	if answer == "" {
		return ""
	}
	if types.LabelIndex(answer) >= 0 {
		return strings.ToUpper(answer)
	}
	for i, opt := range opts {
		if strings.EqualFold(opt, answer) && i < len(types.OptionLabels) {
			return types.OptionLabels[i]
		}
	}
	if label, text := splitLabel(answer); label != "" {
		if i := types.LabelIndex(label); i < len(opts) && strings.EqualFold(opts[i], text) {
			return label
		}
	}
	return ""
}

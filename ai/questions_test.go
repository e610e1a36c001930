package ai

import (
	"testing"

	"github.com/samosabot/samosa-bot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions(t *testing.T) {
	paris := types.Question{
		Text:         "What is the capital of France?",
		Options:      []string{"Berlin", "Paris", "Rome", "Madrid"},
		CorrectLabel: "B",
	}
	narnia := types.Question{
		Text:         "Who wrote Narnia?",
		Options:      []string{"J. R. R. Tolkien", "C. S. Lewis", "Roald Dahl", "Philip Pullman"},
		CorrectLabel: "B",
	}

	tests := []struct {
		name    string
		resp    string
		want    []types.Question
		wantErr bool
	}{
		{
			name: "labelled array in fence",
			resp: "```json\n[{\"question\": \"What is the capital of France?\", \"options\": [\"A: Berlin\", \"B: Paris\", \"C: Rome\", \"D: Madrid\"], \"correct_answer\": \"B\"}]\n```",
			want: []types.Question{paris},
		},
		{
			name: "wrapped object with option map",
			resp: `{"questions": [{"question": "What is the capital of France?", "options": {"A": "Berlin", "B": "Paris", "C": "Rome", "D": "Madrid"}, "correct_answer": "b"}]}`,
			want: []types.Question{paris},
		},
		{
			name: "unlabelled options and answer given as text",
			resp: `[{"question": "What is the capital of France?", "options": ["Berlin", "Paris", "Rome", "Madrid"], "correct_answer": "Paris"}]`,
			want: []types.Question{paris},
		},
		{
			name: "answer given with label prefix",
			resp: `[{"question": "What is the capital of France?", "options": ["A) Berlin", "B) Paris", "C) Rome", "D) Madrid"], "correct_answer": "B) Paris"}]`,
			want: []types.Question{paris},
		},
		{
			name: "out of order labels",
			resp: `[{"question": "What is the capital of France?", "options": ["B: Paris", "A: Berlin", "D: Madrid", "C: Rome"], "correct_answer": "B"}]`,
			want: []types.Question{paris},
		},
		{
			name: "unlabelled options starting with initials",
			resp: `[{"question": "Who wrote Narnia?", "options": ["J. R. R. Tolkien", "C. S. Lewis", "Roald Dahl", "Philip Pullman"], "correct_answer": "C. S. Lewis"}]`,
			want: []types.Question{narnia},
		},
		{
			name: "labelled options with initials and prefixed answer",
			resp: `[{"question": "Who wrote Narnia?", "options": ["A: J. R. R. Tolkien", "B: C. S. Lewis", "C: Roald Dahl", "D: Philip Pullman"], "correct_answer": "B: C. S. Lewis"}]`,
			want: []types.Question{narnia},
		},
		{
			name: "labelled options with initials and answer as text",
			resp: `[{"question": "Who wrote Narnia?", "options": ["A) J. R. R. Tolkien", "B) C. S. Lewis", "C) Roald Dahl", "D) Philip Pullman"], "correct_answer": "C. S. Lewis"}]`,
			want: []types.Question{narnia},
		},
		{
			name: "prefixed answer that disagrees with its option",
			resp: `[{"question": "Who wrote Narnia?", "options": ["J. R. R. Tolkien", "C. S. Lewis", "Roald Dahl", "Philip Pullman"], "correct_answer": "D. H. Lawrence"}]`,
			want: []types.Question{{Text: narnia.Text, Options: narnia.Options}},
		},
		{
			name:    "not json",
			resp:    "Sorry, I can't help with that.",
			wantErr: true,
		},
		{
			name:    "empty array",
			resp:    "[]",
			wantErr: true,
		},
		{
			name:    "truncated",
			resp:    `[{"question": "What`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestions(tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestions_MalformedItemKeepsPosition(t *testing.T) {
	resp := `[
		{"question": "Q1", "options": ["A: a", "B: b", "C: c", "D: d"], "correct_answer": "A"},
		{"question": "Q2", "options": ["A: a", "B: b", "C: c", "D: d"], "correct_answer": "B"},
		{"question": "Q3", "options": ["A: a", "B: b", "C: c", "D: d"]},
		{"question": "Q4", "options": ["A: a", "B: b", "C: c"], "correct_answer": "C"},
		{"question": "Q5", "options": 42, "correct_answer": "D"},
		"not an object"
	]`

	got, err := ParseQuestions(resp)
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.NoError(t, got[0].Validate())
	assert.NoError(t, got[1].Validate())
	assert.ErrorIs(t, got[2].Validate(), types.ErrCorrectLabel)
	assert.ErrorIs(t, got[3].Validate(), types.ErrOptionCount)
	assert.ErrorIs(t, got[4].Validate(), types.ErrOptionCount)
	assert.ErrorIs(t, got[5].Validate(), types.ErrMissingQuestion)
}

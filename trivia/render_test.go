package trivia

import (
	"strings"
	"testing"
	"time"

	"github.com/samosabot/samosa-bot/types"
	"github.com/stretchr/testify/assert"
)

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		id        string
		wantRound string
		wantLabel string
		wantOK    bool
	}{
		{id: CustomID("abc-123", "B"), wantRound: "abc-123", wantLabel: "B", wantOK: true},
		{id: "trivia:abc:Z"},
		{id: "trivia::A"},
		{id: "verify:abc:A"},
		{id: "trivia:abc"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			round, label, ok := ParseCustomID(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRound, round)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestQuestionEmbed(t *testing.T) {
	s := newSession(startReq("g1"), 5, Timings{AnswerWindow: 30 * time.Second})
	rd := s.newRound("r1", question("Capital", "B"))

	embed := questionEmbed(rd, 3)
	assert.Equal(t, "Question 1 of 5", embed.Title)
	assert.Equal(t, "Category: History | Time: 30 seconds | 👥 Total answers: 3", embed.Footer.Text)
	assert.Contains(t, embed.Description, "**D: Capital d**")
}

func TestLeaderboardMessage(t *testing.T) {
	assert.Equal(t, "📊 **Trivia Leaderboard:**\nNo scores yet!", leaderboardMessage(nil))

	msg := leaderboardMessage([]types.LeaderboardEntry{
		{UserID: "1", Username: "Xavier", TotalCorrect: 12, TotalWrong: 3},
		{UserID: "2", Username: "a-very-long-display-name-indeed", TotalCorrect: 2, TotalWrong: 0},
		{UserID: "3", TotalCorrect: 1, TotalWrong: 9},
	})
	lines := strings.Split(msg, "\n")
	assert.Equal(t, "```", lines[1])
	assert.Equal(t, "Rank  User                 Correct Wrong", lines[2])
	assert.Equal(t, "1     Xavier                    12     3", lines[4])
	assert.Equal(t, "2     a-very-long-display…       2     0", lines[5])
	assert.Equal(t, "3     3                          1     9", lines[6])
	assert.True(t, strings.HasSuffix(msg, "```"))
}

func TestFinalEmbed_NobodyPlayed(t *testing.T) {
	s := newSession(startReq("g1"), 2, Timings{})
	embed := finalEmbed(s, s.Snapshot())
	assert.Equal(t, "No Scores", embed.Fields[0].Name)
	assert.Equal(t, "No one participated in this game.", embed.Fields[0].Value)
}

func TestStoppedEmbed_States(t *testing.T) {
	s := newSession(startReq("g1"), 2, Timings{})
	tests := []struct {
		state State
		want  string
	}{
		{StateInitializing, "before the first question"},
		{StateGenerating, "while questions were being generated"},
		{StatePlaying, "during question 1 of 2"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			embed := stoppedEmbed(s, Snapshot{State: tt.state, QuestionsAsked: 1, MaxQuestions: 2})
			assert.Contains(t, embed.Description, tt.want)
		})
	}
}

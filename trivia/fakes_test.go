package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/types"
)

type fakeResponder struct {
	mu        sync.Mutex
	deferred  int
	texts     []string
	embeds    []*discordgo.MessageEmbed
	edits     []*discordgo.MessageEdit
	posted    []*discordgo.MessageSend
	questions chan *discordgo.MessageSend
}

func newFakeResponder() *fakeResponder {
	return &fakeResponder{questions: make(chan *discordgo.MessageSend, 32)}
}

func (f *fakeResponder) Defer(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deferred++
	return nil
}

func (f *fakeResponder) Send(ctx context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, content)
	return nil
}

func (f *fakeResponder) SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return nil
}

func (f *fakeResponder) SendMessage(ctx context.Context, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	f.posted = append(f.posted, msg)
	id := fmt.Sprintf("m%d", len(f.posted))
	f.mu.Unlock()
	f.questions <- msg
	return &discordgo.Message{ID: id, ChannelID: "chan"}, nil
}

func (f *fakeResponder) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return nil
}

func (f *fakeResponder) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeResponder) HasText(substr string) bool {
	for _, t := range f.Texts() {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

func (f *fakeResponder) Embed(title string) *discordgo.MessageEmbed {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.embeds {
		if e.Title == title {
			return e
		}
	}
	return nil
}

func (f *fakeResponder) Posted() []*discordgo.MessageSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), f.posted...)
}

func (f *fakeResponder) Edits() []*discordgo.MessageEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.MessageEdit(nil), f.edits...)
}

// nextRound waits for the next posted question and returns its round ID.
func (f *fakeResponder) nextRound(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-f.questions:
		row := msg.Components[0].(discordgo.ActionsRow)
		btn := row.Components[0].(discordgo.Button)
		roundID, _, ok := ParseCustomID(btn.CustomID)
		if !ok {
			t.Fatalf("unexpected custom id %q", btn.CustomID)
		}
		return roundID
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a trivia question")
		return ""
	}
}

type fakeGenerator struct {
	mu        sync.Mutex
	questions []types.Question
	err       error
	calls     int
	release   chan struct{}
}

func (g *fakeGenerator) GenerateQuestions(ctx context.Context, category string, count int) ([]types.Question, error) {
	g.mu.Lock()
	g.calls++
	release := g.release
	g.mu.Unlock()
	if release != nil {
		<-release
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type storeWrite struct {
	UserID  string
	Name    string
	Correct int
	Wrong   int
}

type fakeStore struct {
	mu          sync.Mutex
	entries     map[string]types.LeaderboardEntry
	writes      []storeWrite
	err         error
	readErr     error
	onIncrement func(call int)
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]types.LeaderboardEntry)}
}

func (s *fakeStore) IncrementStats(ctx context.Context, userID, username string, correct, wrong int) error {
	s.mu.Lock()
	s.writes = append(s.writes, storeWrite{userID, username, correct, wrong})
	call := len(s.writes)
	hook := s.onIncrement
	err := s.err
	if err == nil {
		e := s.entries[userID]
		e.UserID = userID
		e.Username = username
		e.TotalCorrect += correct
		e.TotalWrong += wrong
		s.entries[userID] = e
	}
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (s *fakeStore) GetUserStats(ctx context.Context, userID string) (types.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return types.UserStats{}, s.readErr
	}
	e := s.entries[userID]
	return types.UserStats{TotalCorrect: e.TotalCorrect, TotalWrong: e.TotalWrong}, nil
}

func (s *fakeStore) TopPlayers(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]types.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) ClearLeaderboard(ctx context.Context) (int64, error) {
	return 0, errors.New("not used")
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) Writes() []storeWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storeWrite(nil), s.writes...)
}

func (s *fakeStore) Entry(userID string) types.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[userID]
}

func testConfig(window time.Duration) Config {
	timings := Timings{StartDelay: time.Millisecond, AnswerWindow: window, QuestionBreak: time.Millisecond}
	return Config{Normal: timings, Fast: timings, DefaultQuestions: 2, MaxQuestions: 20}
}

func newTestEngine(gen *fakeGenerator, store *fakeStore, cfg Config) *Engine {
	return NewEngine(NewManager(), gen, store, cfg, logging.NewLogger(logging.LogLevelError, nil))
}

func question(text, correct string) types.Question {
	return types.Question{
		Text:         text,
		Options:      []string{text + " a", text + " b", text + " c", text + " d"},
		CorrectLabel: correct,
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("trivia game did not finish")
	}
}

package discord

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/trivia"
	"github.com/samosabot/samosa-bot/types"
)

type fakeMessenger struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	sent      []string
	embeds    []*discordgo.MessageEmbed
	complex   []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	typing    int
	messages  chan *discordgo.MessageSend
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{messages: make(chan *discordgo.MessageSend, 16)}
}

func (f *fakeMessenger) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeMessenger) FollowupMessageCreate(i *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.followups = append(f.followups, data)
	f.mu.Unlock()
	if len(data.Components) > 0 {
		f.messages <- &discordgo.MessageSend{Embeds: data.Embeds, Components: data.Components}
	}
	return &discordgo.Message{ID: "followup", ChannelID: i.ChannelID}, nil
}

func (f *fakeMessenger) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "sent", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: "embed", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.complex = append(f.complex, data)
	f.mu.Unlock()
	f.messages <- data
	return &discordgo.Message{ID: "question", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeMessenger) ChannelTyping(string, ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

func (f *fakeMessenger) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeMessenger) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

// nextQuestion waits for the next message carrying answer buttons.
func (f *fakeMessenger) nextQuestion(t *testing.T) *discordgo.MessageSend {
	t.Helper()
	select {
	case m := <-f.messages:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a question")
		return nil
	}
}

type fakeGenerator struct {
	questions []types.Question
}

func (g *fakeGenerator) GenerateQuestions(_ context.Context, _ string, count int) ([]types.Question, error) {
	if count < len(g.questions) {
		return g.questions[:count], nil
	}
	return g.questions, nil
}

type fakeStore struct {
	mu      sync.Mutex
	stats   map[string]types.UserStats
	entries []types.LeaderboardEntry
}

func (s *fakeStore) IncrementStats(_ context.Context, userID, _ string, correct, wrong int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		s.stats = make(map[string]types.UserStats)
	}
	st := s.stats[userID]
	st.TotalCorrect += correct
	st.TotalWrong += wrong
	s.stats[userID] = st
	return nil
}

func (s *fakeStore) GetUserStats(_ context.Context, userID string) (types.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[userID], nil
}

func (s *fakeStore) TopPlayers(context.Context, int) ([]types.LeaderboardEntry, error) {
	return s.entries, nil
}

func (s *fakeStore) ClearLeaderboard(context.Context) (int64, error) { return 0, nil }

func (s *fakeStore) Close() error { return nil }

func newTestClient(t *testing.T, gen *fakeGenerator, store *fakeStore) (*Client, *fakeMessenger) {
	t.Helper()
	logger := logging.NewLogger(logging.LogLevelError, io.Discard)
	timings := trivia.Timings{StartDelay: time.Millisecond, AnswerWindow: 300 * time.Millisecond, QuestionBreak: time.Millisecond}
	engine := trivia.NewEngine(trivia.NewManager(), gen, store, trivia.Config{
		Normal:           timings,
		Fast:             timings,
		DefaultQuestions: 1,
		MaxQuestions:     5,
	}, logger)
	t.Cleanup(engine.Wait)

	api := newFakeMessenger()
	c := newClient(context.Background(), api, engine, Options{
		Prefix:       "!",
		Categories:   []string{"History", "Science"},
		MaxQuestions: 5,
	}, logger)
	return c, api
}

func memberInteraction(kind discordgo.InteractionType, userID, name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      kind,
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: name}},
	}
}

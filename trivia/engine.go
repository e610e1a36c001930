// Package trivia runs LLM generated trivia games, one per guild, with timed
// button rounds and a global leaderboard.
package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/samosabot/samosa-bot/ai"
	"github.com/samosabot/samosa-bot/database"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/types"
)

// LeaderboardSize is how many players the global leaderboard shows.
const LeaderboardSize = 10

// Config holds timings per speed and question count limits.
type Config struct {
	Normal           Timings
	Fast             Timings
	DefaultQuestions int
	MaxQuestions     int
}

func (c Config) timings(speed Speed) Timings {
	if speed == SpeedFast {
		return c.Fast
	}
	return c.Normal
}

func (c Config) questionCount(n int) int {
	if n <= 0 {
		n = c.DefaultQuestions
	}
	if c.MaxQuestions > 0 && n > c.MaxQuestions {
		n = c.MaxQuestions
	}
	if n <= 0 {
		n = 1
	}
	return n
}

// StartRequest describes a start command.
type StartRequest struct {
	GuildID   string
	ChannelID string
	Category  string
	Questions int
	Speed     Speed
	StartedBy string
}

// AnswerRequest is a button click on a question.
type AnswerRequest struct {
	GuildID string
	RoundID string
	UserID  string
	Name    string
	Label   string
}

// AnswerResult tells the chat layer how to acknowledge a click.
type AnswerResult struct {
	// Accepted is false when the user had already answered this round.
	Accepted bool
	// Option is the user's locked in option, e.g. "B: Paris".
	Option string
	Total  int
}

// Engine drives trivia sessions. Every operation reports back through a
// Responder and converts failures into chat messages.
type Engine struct {
	sessions  *Manager
	generator ai.QuestionGenerator
	store     database.LeaderboardStore
	config    Config
	logger    *logging.Logger

	// mu orders Start's wg.Add against Shutdown.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	newID  func() string
}

// NewEngine wires an engine. The manager is shared with anything that inspects sessions.
func NewEngine(sessions *Manager, generator ai.QuestionGenerator, store database.LeaderboardStore, config Config, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if sessions == nil {
		sessions = NewManager()
	}
	return &Engine{
		sessions:  sessions,
		generator: generator,
		store:     store,
		config:    config,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}
}

// Sessions exposes the registry.
func (e *Engine) Sessions() *Manager {
	return e.sessions
}

// Wait blocks until every running game goroutine has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Shutdown refuses new games and waits for running ones. Games exit once the
// context they were started with is cancelled.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// Start registers a session for the guild and plays it in the background. ctx
// bounds the whole game, so it should be the application's context rather than
// a request's.
func (e *Engine) Start(ctx context.Context, req StartRequest, r Responder) (*Session, error) {
	logger := e.logger.With("guildID", req.GuildID, "category", req.Category)
	if err := r.Defer(ctx); err != nil {
		logger.Warn("failed to defer trivia start", "error", err.Error())
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		e.send(ctx, r, msgMissingCategory)
		return nil, ErrMissingCategory
	}

	s := newSession(req, e.config.questionCount(req.Questions), e.config.timings(req.Speed))
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		logger.Info("rejected trivia start, engine shutting down")
		e.send(ctx, r, msgShuttingDown)
		return nil, ErrShuttingDown
	}
	if err := e.sessions.add(s); err != nil {
		e.mu.Unlock()
		logger.Info("rejected trivia start, game already running")
		e.send(ctx, r, msgAlreadyRunning)
		return nil, err
	}
	e.wg.Add(1)
	e.mu.Unlock()

	logger.Info("trivia game started", "sessionID", s.ID, "questions", s.MaxQuestions, "speed", s.Speed)
	metrics.TriviaGames.WithLabelValues("started").Inc()

	go e.play(ctx, s, r)
	return s, nil
}

func (e *Engine) play(ctx context.Context, s *Session, r Responder) {
	logger := e.logger.With("guildID", s.GuildID, "sessionID", s.ID)
	defer e.wg.Done()
	defer close(s.done)
	defer e.sessions.remove(s)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("trivia game panicked", "panic", fmt.Sprint(p))
			metrics.TriviaGames.WithLabelValues("failed").Inc()
		}
	}()

	e.send(ctx, r, announceMessage(s))
	if !s.pause(ctx, s.timings.StartDelay) {
		return
	}

	s.setState(StateGenerating)
	questions, err := e.generator.GenerateQuestions(ctx, s.Category, s.MaxQuestions)
	if s.isStopped() {
		logger.Debug("trivia game stopped during generation, discarding questions")
		return
	}
	if err != nil {
		logger.Error("failed to generate trivia questions", "error", err.Error())
		metrics.TriviaGames.WithLabelValues("failed").Inc()
		e.send(ctx, r, msgGenerationError)
		return
	}

	s.setState(StatePlaying)
	for i, q := range questions {
		if s.isStopped() {
			return
		}
		if err := q.Validate(); err != nil {
			logger.Warn("skipping malformed trivia question", "index", i, "error", err.Error())
			metrics.TriviaSkippedQuestions.Inc()
			e.send(ctx, r, msgSkipQuestion)
			continue
		}

		if !e.playRound(ctx, s, r, q) {
			return
		}
		if s.advance() {
			break
		}
		if i < len(questions)-1 && !s.pause(ctx, s.timings.QuestionBreak) {
			return
		}
	}

	if s.isStopped() {
		return
	}
	e.finish(ctx, s, r)
}

// playRound posts one question, collects answers for the full window and scores
// them. It returns false when the game must end without further messages.
func (e *Engine) playRound(ctx context.Context, s *Session, r Responder, q types.Question) bool {
	rd := s.newRound(e.newID(), q)
	logger := e.logger.With("guildID", s.GuildID, "sessionID", s.ID, "round", rd.number)

	e.sessions.openRound(rd)
	defer e.sessions.closeRound(rd.id)

	msg, err := r.SendMessage(ctx, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{questionEmbed(rd, 0)},
		Components: answerButtons(rd),
	})
	if err != nil {
		logger.Error("failed to post trivia question", "error", err.Error())
		rd.close()
		return true
	}
	metrics.DiscordMessageSent.Add(1)

	// the answer window is never cut short by stop, only by shutdown
	if !sleep(ctx, s.timings.AnswerWindow) {
		return false
	}
	answers := rd.close()
	if s.isStopped() {
		logger.Debug("trivia game stopped during answer window, discarding answers", "answers", len(answers))
		return false
	}

	s.score(answers)
	e.persist(ctx, logger, answers)
	metrics.TriviaRounds.Inc()

	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.ID)
	edit.Embeds = &[]*discordgo.MessageEmbed{closedQuestionEmbed(rd, answers)}
	components := revealButtons(rd, answers)
	edit.Components = &components
	rd.editMu.Lock()
	err = r.EditMessage(ctx, edit)
	rd.editMu.Unlock()
	if err != nil {
		logger.Warn("failed to close trivia question", "error", err.Error())
	}
	e.sendEmbed(ctx, r, resultsEmbed(rd, answers))
	return true
}

// persist writes one increment per answering user. Lost writes are logged, never fatal.
func (e *Engine) persist(ctx context.Context, logger *logging.Logger, answers []Answer) {
	for _, a := range answers {
		correct, wrong := 0, 1
		result := "wrong"
		if a.Correct {
			correct, wrong = 1, 0
			result = "correct"
		}
		metrics.TriviaAnswers.WithLabelValues(result).Inc()
		if err := e.store.IncrementStats(ctx, a.UserID, a.Name, correct, wrong); err != nil {
			logger.Error("failed to update trivia leaderboard", "error", err.Error(), "userID", a.UserID)
			metrics.LeaderboardWriteErrors.Inc()
		}
	}
}

func (e *Engine) finish(ctx context.Context, s *Session, r Responder) {
	snap := s.Snapshot()
	e.sendEmbed(ctx, r, finalEmbed(s, snap))
	e.send(ctx, r, msgGameOver)
	metrics.TriviaGames.WithLabelValues("completed").Inc()
	e.logger.Info("trivia game completed", "guildID", s.GuildID, "sessionID", s.ID, "players", len(snap.Players))
}

// Stop ends the guild's game and reports the scores at the moment of the call.
// Work already in flight finishes on its own and is discarded at the next checkpoint.
func (e *Engine) Stop(ctx context.Context, guildID string, r Responder) error {
	if err := r.Defer(ctx); err != nil {
		e.logger.Warn("failed to defer trivia stop", "error", err.Error(), "guildID", guildID)
	}

	s, ok := e.sessions.Get(guildID)
	if !ok {
		e.send(ctx, r, msgNoActiveGame)
		return ErrNoSession
	}
	snap, first := s.halt()
	e.sessions.remove(s)
	if !first {
		e.send(ctx, r, msgNoActiveGame)
		return ErrNoSession
	}

	e.logger.Info("trivia game stopped", "guildID", guildID, "sessionID", s.ID, "state", snap.State)
	metrics.TriviaGames.WithLabelValues("stopped").Inc()
	e.sendEmbed(ctx, r, stoppedEmbed(s, snap))
	return nil
}

// Answer records a button click. The first answer per user per round wins.
func (e *Engine) Answer(req AnswerRequest) (AnswerResult, error) {
	rd, ok := e.sessions.round(req.RoundID)
	if !ok || rd.guildID != req.GuildID {
		return AnswerResult{}, ErrRoundClosed
	}
	if types.LabelIndex(req.Label) < 0 {
		return AnswerResult{}, ErrInvalidLabel
	}

	a, accepted, total, err := rd.submit(req.UserID, req.Name, req.Label)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{
		Accepted: accepted,
		Option:   rd.question.Option(a.Label),
		Total:    total,
	}, nil
}

// RefreshQuestion hands edit the open question embed with the current answer
// count. Once the round has closed it returns ErrRoundClosed without calling
// edit, and the closing edit waits for any refresh already in flight.
func (e *Engine) RefreshQuestion(ctx context.Context, guildID, roundID string, edit func(context.Context, *discordgo.MessageEmbed) error) error {
	rd, ok := e.sessions.round(roundID)
	if !ok || rd.guildID != guildID {
		return ErrRoundClosed
	}
	rd.editMu.Lock()
	defer rd.editMu.Unlock()
	total, open := rd.count()
	if !open {
		return ErrRoundClosed
	}
	return edit(ctx, questionEmbed(rd, total))
}

// Leaderboard renders the global top players. Store failures render as empty.
func (e *Engine) Leaderboard(ctx context.Context, r Responder) error {
	if err := r.Defer(ctx); err != nil {
		e.logger.Warn("failed to defer leaderboard", "error", err.Error())
	}
	entries, err := e.store.TopPlayers(ctx, LeaderboardSize)
	if err != nil {
		e.logger.Error("failed to load trivia leaderboard", "error", err.Error())
		entries = nil
	}
	return e.send(ctx, r, leaderboardMessage(entries))
}

// Stats renders one user's global totals. Store failures render as zero.
func (e *Engine) Stats(ctx context.Context, userID, name string, r Responder) error {
	if err := r.Defer(ctx); err != nil {
		e.logger.Warn("failed to defer stats", "error", err.Error())
	}
	stats, err := e.store.GetUserStats(ctx, userID)
	if err != nil {
		e.logger.Error("failed to load trivia stats", "error", err.Error(), "userID", userID)
		stats = types.UserStats{}
	}
	return e.send(ctx, r, statsMessage(name, stats))
}

func (e *Engine) send(ctx context.Context, r Responder, content string) error {
	if err := r.Send(ctx, content); err != nil {
		e.logger.Error("failed to send trivia message", "error", err.Error())
		return err
	}
	metrics.DiscordMessageSent.Add(1)
	return nil
}

func (e *Engine) sendEmbed(ctx context.Context, r Responder, embed *discordgo.MessageEmbed) {
	if err := r.SendEmbed(ctx, embed); err != nil {
		e.logger.Error("failed to send trivia embed", "error", err.Error(), "title", embed.Title)
		return
	}
	metrics.DiscordMessageSent.Add(1)
}

// sleep waits d and reports false only if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// IsUserError reports whether err is a rejection already explained to the user.
func IsUserError(err error) bool {
	return errors.Is(err, ErrSessionActive) || errors.Is(err, ErrMissingCategory) ||
		errors.Is(err, ErrNoSession) || errors.Is(err, ErrShuttingDown)
}

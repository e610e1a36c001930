package trivia

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samosabot/samosa-bot/types"
)

// State is where a session is in its lifecycle.
type State string

const (
	StateInitializing State = "initializing"
	StateGenerating   State = "generating_questions"
	StatePlaying      State = "playing"
	StateStopped      State = "stopped"
)

// Speed selects a timing profile.
type Speed string

const (
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
)

// ParseSpeed maps user input to a Speed. Anything other than "fast" is normal.
func ParseSpeed(s string) Speed {
	if strings.EqualFold(strings.TrimSpace(s), string(SpeedFast)) {
		return SpeedFast
	}
	return SpeedNormal
}

// Label is how the speed is announced.
func (s Speed) Label() string {
	if s == SpeedFast {
		return "Fast-Paced"
	}
	return "Slow-Paced"
}

// Timings are the fixed waits of one game.
type Timings struct {
	StartDelay    time.Duration
	AnswerWindow  time.Duration
	QuestionBreak time.Duration
}

// Session is one guild's game. It lives only in memory.
type Session struct {
	ID           uuid.UUID
	GuildID      string
	ChannelID    string
	Category     string
	Speed        Speed
	StartedBy    string
	MaxQuestions int

	timings Timings

	mu             sync.Mutex
	state          State
	questionsAsked int
	scores         map[string]int
	wrong          map[string]int
	names          map[string]string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSession(req StartRequest, maxQuestions int, timings Timings) *Session {
	return &Session{
		ID:             uuid.New(),
		GuildID:        req.GuildID,
		ChannelID:      req.ChannelID,
		Category:       req.Category,
		Speed:          req.Speed,
		StartedBy:      req.StartedBy,
		MaxQuestions:   maxQuestions,
		timings:        timings,
		state:          StateInitializing,
		questionsAsked: 1,
		scores:         make(map[string]int),
		wrong:          make(map[string]int),
		names:          make(map[string]string),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the game goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		s.state = state
	}
}

func (s *Session) isStopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// halt marks the session stopped and returns the state as it was before.
// Only the first caller gets ok == true.
func (s *Session) halt() (snap Snapshot, ok bool) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		snap = s.snapshotLocked()
		s.state = StateStopped
		s.mu.Unlock()
		close(s.stop)
		ok = true
	})
	return snap, ok
}

// pause waits d unless the session is stopped or ctx ends first.
func (s *Session) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !s.isStopped()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !s.isStopped()
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// round returns the number of the question about to be played.
func (s *Session) round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsAsked
}

// advance moves to the next question and reports whether the game is over.
func (s *Session) advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionsAsked++
	return s.questionsAsked > s.MaxQuestions
}

// score applies a closed round's answers to the session totals.
func (s *Session) score(answers []Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range answers {
		s.names[a.UserID] = a.Name
		if a.Correct {
			s.scores[a.UserID]++
		} else {
			s.wrong[a.UserID]++
		}
	}
}

// Snapshot is a copy of a session's progress.
type Snapshot struct {
	State          State
	QuestionsAsked int
	MaxQuestions   int
	Players        []PlayerScore
}

// PlayerScore is one player's totals for a single session.
type PlayerScore struct {
	UserID  string
	Name    string
	Correct int
	Wrong   int
}

// Snapshot copies the current scores, best first.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	seen := make(map[string]bool, len(s.names))
	players := make([]PlayerScore, 0, len(s.names))
	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		players = append(players, PlayerScore{
			UserID:  id,
			Name:    s.names[id],
			Correct: s.scores[id],
			Wrong:   s.wrong[id],
		})
	}
	for id := range s.scores {
		add(id)
	}
	for id := range s.wrong {
		add(id)
	}
	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Correct != b.Correct {
			return a.Correct > b.Correct
		}
		if a.Wrong != b.Wrong {
			return a.Wrong < b.Wrong
		}
		return a.Name < b.Name
	})
	return Snapshot{
		State:          s.state,
		QuestionsAsked: s.questionsAsked,
		MaxQuestions:   s.MaxQuestions,
		Players:        players,
	}
}

// Answer is one user's locked in choice for a round.
type Answer struct {
	UserID  string
	Name    string
	Label   string
	Correct bool
}

// round is one question's answer collection. Answers are accepted until close.
type round struct {
	id       string
	guildID  string
	number   int
	total    int
	category string
	window   time.Duration
	question types.Question

	mu      sync.Mutex
	closed  bool
	answers map[string]Answer
	order   []string

	// editMu orders answer count refreshes before the closing edit.
	editMu sync.Mutex
}

func (s *Session) newRound(id string, q types.Question) *round {
	return &round{
		id:       id,
		guildID:  s.GuildID,
		number:   s.round(),
		total:    s.MaxQuestions,
		category: s.Category,
		window:   s.timings.AnswerWindow,
		question: q,
		answers:  make(map[string]Answer),
	}
}

// submit records the first answer per user. Later answers return accepted == false
// along with the user's original answer.
func (r *round) submit(userID, name, label string) (Answer, bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Answer{}, false, len(r.order), ErrRoundClosed
	}
	if prev, ok := r.answers[userID]; ok {
		return prev, false, len(r.order), nil
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	a := Answer{
		UserID:  userID,
		Name:    name,
		Label:   label,
		Correct: label == r.question.CorrectLabel,
	}
	r.answers[userID] = a
	r.order = append(r.order, userID)
	return a, true, len(r.order), nil
}

// count reports how many users have answered and whether the round is still open.
func (r *round) count() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order), !r.closed
}

// close stops collection and returns answers in arrival order.
func (r *round) close() []Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make([]Answer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.answers[id])
	}
	return out
}

// chosen returns the set of labels picked by at least one user.
func chosen(answers []Answer) map[string]bool {
	out := make(map[string]bool, len(answers))
	for _, a := range answers {
		out[a.Label] = true
	}
	return out
}

package discord

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits how often one user may run commands: a minimum gap between
// commands and a cap per minute. Exempt commands are never limited.
type Throttle struct {
	mu        sync.Mutex
	gap       time.Duration
	perMinute int
	exempt    map[string]bool
	users     map[string]*userLimits
	now       func() time.Time
}

type userLimits struct {
	gap    *rate.Limiter
	minute *rate.Limiter
}

// NewThrottle builds a throttle. A zero gap or perMinute disables that limit.
func NewThrottle(gap time.Duration, perMinute int, exempt []string) *Throttle {
	ex := make(map[string]bool, len(exempt))
	for _, c := range exempt {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			ex[c] = true
		}
	}
	return &Throttle{
		gap:       gap,
		perMinute: perMinute,
		exempt:    ex,
		users:     make(map[string]*userLimits),
		now:       time.Now,
	}
}

// Allow reports whether userID may run command now, and if not how long to wait.
func (t *Throttle) Allow(userID, command string) (bool, time.Duration) {
	if t == nil || t.exempt[strings.ToLower(command)] {
		return true, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.users[userID]
	if !ok {
		l = &userLimits{}
		if t.gap > 0 {
			l.gap = rate.NewLimiter(rate.Every(t.gap), 1)
		}
		if t.perMinute > 0 {
			l.minute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(t.perMinute)), t.perMinute)
		}
		t.users[userID] = l
	}

	now := t.now()
	var reservations []*rate.Reservation
	var wait time.Duration
	for _, lim := range []*rate.Limiter{l.gap, l.minute} {
		if lim == nil {
			continue
		}
		r := lim.ReserveN(now, 1)
		reservations = append(reservations, r)
		if d := r.DelayFrom(now); d > wait {
			wait = d
		}
	}
	if wait > 0 {
		for _, r := range reservations {
			r.CancelAt(now)
		}
		return false, wait
	}
	return true, 0
}

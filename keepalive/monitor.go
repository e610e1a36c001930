// Package keepalive watches the bot's health endpoints and posts to a discord
// channel when one goes down or comes back.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/samosabot/samosa-bot/logging"
	"golang.org/x/sync/errgroup"
)

// failureThreshold is how many failed checks in a row count as an outage.
const failureThreshold = 3

// Target is one endpoint to watch. A 200 response means healthy.
type Target struct {
	Name string
	URL  string
}

// Notifier delivers outage and recovery notices.
type Notifier interface {
	Notify(ctx context.Context, target, message string) error
}

type targetState struct {
	mu        sync.Mutex
	target    Target
	failures  int
	healthy   bool
	lastCheck time.Time
	lastAlert time.Time
}

// Status is a point in time view of one target.
type Status struct {
	Name                string
	URL                 string
	Healthy             bool
	ConsecutiveFailures int
	LastCheck           time.Time
}

// Monitor polls every target on an interval.
type Monitor struct {
	targets       []*targetState
	interval      time.Duration
	alertInterval time.Duration
	retries       int
	retryDelay    time.Duration
	client        *http.Client
	notifier      Notifier
	logger        *logging.Logger
	now           func() time.Time
}

// NewMonitor watches targets every interval and repeats outage notices at most
// once per alertInterval.
func NewMonitor(targets []Target, interval, alertInterval time.Duration, notifier Notifier, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Monitor{
		interval:      interval,
		alertInterval: alertInterval,
		retries:       3,
		retryDelay:    time.Second,
		client:        &http.Client{Timeout: 10 * time.Second},
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
	for _, t := range targets {
		m.targets = append(m.targets, &targetState{target: t, healthy: true})
	}
	return m
}

// Run checks immediately and then on every tick until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("keepalive monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll probes every target in parallel.
func (m *Monitor) CheckAll(ctx context.Context) {
	var g errgroup.Group
	for _, st := range m.targets {
		g.Go(func() error {
			m.check(ctx, st)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Monitor) check(ctx context.Context, st *targetState) {
	ok := m.probe(ctx, st.target.URL)

	st.mu.Lock()
	now := m.now()
	st.lastCheck = now
	var notice string
	switch {
	case ok && !st.healthy:
		notice = fmt.Sprintf("✅ %s is back after %d failed checks", st.target.Name, st.failures)
		m.logger.Info("target recovered", "target", st.target.Name, "failures", st.failures)
		st.healthy = true
		st.failures = 0
	case ok:
		st.failures = 0
	default:
		st.failures++
		m.logger.Warn("health check failed", "target", st.target.Name, "url", st.target.URL, "failures", st.failures)
		switch {
		case st.failures == failureThreshold:
			st.healthy = false
			st.lastAlert = now
			notice = fmt.Sprintf("🚨 %s is offline after %d failed health checks", st.target.Name, failureThreshold)
		case st.failures > failureThreshold && now.Sub(st.lastAlert) >= m.alertInterval:
			st.lastAlert = now
			notice = fmt.Sprintf("🚨 %s is still offline (%d failed checks)", st.target.Name, st.failures)
		}
	}
	name := st.target.Name
	st.mu.Unlock()

	if notice == "" || m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, name, notice); err != nil {
		m.logger.Error("failed to send keepalive notice", "target", name, "error", err.Error())
	}
}

// probe retries with a doubling delay and reports whether any attempt got a 200.
func (m *Monitor) probe(ctx context.Context, url string) bool {
	delay := m.retryDelay
	for attempt := range m.retries {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			m.logger.Error("bad health check url", "url", url, "error", err.Error())
			return false
		}
		resp, err := m.client.Do(req)
		if err != nil {
			m.logger.Debug("health check request failed", "url", url, "attempt", attempt+1, "error", err.Error())
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
		m.logger.Debug("health check returned non-OK status", "url", url, "attempt", attempt+1, "status", resp.StatusCode)
	}
	return false
}

// Statuses reports every target in the order they were configured.
func (m *Monitor) Statuses() []Status {
	out := make([]Status, 0, len(m.targets))
	for _, st := range m.targets {
		st.mu.Lock()
		out = append(out, Status{
			Name:                st.target.Name,
			URL:                 st.target.URL,
			Healthy:             st.healthy,
			ConsecutiveFailures: st.failures,
			LastCheck:           st.lastCheck,
		})
		st.mu.Unlock()
	}
	return out
}

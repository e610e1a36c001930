package metrics

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Expvar metrics
	EmptyLLMResponseCount  = expvar.NewInt("empty_llm_response_count")
	SuccessfulLLMGenCount  = expvar.NewInt("successful_llm_gen_count")
	FailedLLMGenCount      = expvar.NewInt("failed_llm_gen_count")
	DiscordMessageRecieved = expvar.NewInt("discord_message_recieved")
	DiscordMessageSent     = expvar.NewInt("discord_message_sent")
	ActiveTriviaSessions   = expvar.NewInt("active_trivia_sessions")

	// Prometheus metrics with labels
	DiscordCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_command_total",
			Help: "Total number of Discord commands invoked by command type",
		},
		[]string{"command"},
	)

	DiscordCommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_command_errors",
			Help: "Total number of Discord command errors by command type",
		},
		[]string{"command"},
	)

	DiscordCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discord_command_duration_seconds",
			Help:    "Duration of Discord command execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	DiscordCommandThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_command_throttled_total",
			Help: "Commands rejected by the per-user throttle",
		},
		[]string{"command"},
	)

	TriviaGames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_games_total",
			Help: "Total number of trivia games by status (started, completed, stopped, failed)",
		},
		[]string{"status"},
	)

	TriviaRounds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_rounds_total",
			Help: "Total number of trivia rounds played to their deadline",
		},
	)

	TriviaSkippedQuestions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_skipped_questions_total",
			Help: "Generated questions dropped because they were malformed",
		},
	)

	TriviaAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_answers_total",
			Help: "Scored trivia answers by result (correct, wrong)",
		},
		[]string{"result"},
	)

	LeaderboardWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_leaderboard_write_errors_total",
			Help: "Leaderboard increments lost because the store failed",
		},
	)

	QuestionGenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trivia_question_generation_duration_seconds",
			Help:    "Duration of a batched trivia question generation call",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)

type Server struct {
	*http.Server
}

// SetupServer builds the metrics, health and pprof server. It does not start listening.
func SetupServer(addr string) *Server {
	if addr == "" {
		addr = ":6060"
	}

	EmptyLLMResponseCount.Set(0)
	SuccessfulLLMGenCount.Set(0)
	FailedLLMGenCount.Set(0)
	DiscordMessageRecieved.Set(0)
	DiscordMessageSent.Set(0)
	ActiveTriviaSessions.Set(0)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewExpvarCollector(
			map[string]*prometheus.Desc{
				"discord_message_recieved": prometheus.NewDesc("discord_message_recieved", "number of times discord received a message", nil, nil),
				"discord_message_sent":     prometheus.NewDesc("discord_message_sent", "number of times discord sent a message", nil, nil),
				"empty_llm_response_count": prometheus.NewDesc("empty_llm_response_count", "number of times llm responded with and empty string ", nil, nil),
				"successful_llm_gen_count": prometheus.NewDesc("successful_llm_gen_count", "number of times llm generated a valid response", nil, nil),
				"failed_llm_gen_count":     prometheus.NewDesc("failed_llm_gen_count", "number of times errors occured in llm generation", nil, nil),
				"active_trivia_sessions":   prometheus.NewDesc("active_trivia_sessions", "number of trivia games currently running", nil, nil),
			},
		),
		DiscordCommandTotal,
		DiscordCommandErrors,
		DiscordCommandDuration,
		DiscordCommandThrottled,
		TriviaGames,
		TriviaRounds,
		TriviaSkippedQuestions,
		TriviaAnswers,
		LeaderboardWriteErrors,
		QuestionGenerationDuration,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", healthzHandler)
	// pprof registers itself on the default mux
	mux.Handle("/debug/", http.DefaultServeMux)

	return &Server{&http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}}
}

// healthzHandler returns a simple health check response
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Run blocks serving until Shutdown is called.
func (s *Server) Run() error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

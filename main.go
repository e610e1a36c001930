package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samosabot/samosa-bot/ai"
	"github.com/samosabot/samosa-bot/ai/triviagen"
	"github.com/samosabot/samosa-bot/config"
	"github.com/samosabot/samosa-bot/database"
	"github.com/samosabot/samosa-bot/discord"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/trivia"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "logLevel", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := logging.NewLogger(logging.ParseLevel(logLevel), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("samosa bot exited with error", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("Shutting down")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	if cfg.DiscordToken == "" {
		return errors.New("DISCORD_SECRET environment variable is required")
	}
	store, err := database.NewStore(ctx, database.Options{
		Backend:       cfg.Store.Backend,
		PostgresURL:   cfg.Store.PostgresURL,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
		RedisPrefix:   cfg.Store.RedisPrefix,
	}, logger)
	if err != nil {
		return err
	}

	triviaCfg := ai.DefaultTriviaConfig()
	if cfg.LLM.ConfigPath != "" {
		triviaCfg, err = ai.LoadTriviaConfig(cfg.LLM.ConfigPath)
		if err != nil {
			store.Close()
			return err
		}
	}

	// we are not necessarily connecting to openai, any server speaking its api works, llama.cpp included
	generator, err := triviagen.Setup(cfg.LLM.BaseURL, cfg.LLM.Token, cfg.LLM.Model, triviaCfg, logger)
	if err != nil {
		store.Close()
		return err
	}

	engine := trivia.NewEngine(trivia.NewManager(), generator, store, trivia.Config{
		Normal: trivia.Timings{
			StartDelay:    config.Seconds(cfg.Trivia.StartDelay),
			AnswerWindow:  config.Seconds(cfg.Trivia.AnswerTime),
			QuestionBreak: config.Seconds(cfg.Trivia.QuestionBreak),
		},
		Fast: trivia.Timings{
			StartDelay:    config.Seconds(cfg.Trivia.FastStartDelay),
			AnswerWindow:  config.Seconds(cfg.Trivia.FastAnswerTime),
			QuestionBreak: config.Seconds(cfg.Trivia.FastQuestionBreak),
		},
		DefaultQuestions: cfg.Trivia.QuestionCount,
		MaxQuestions:     cfg.Trivia.MaxQuestions,
	}, logger)

	client, err := discord.Setup(ctx, engine, discord.Options{
		Token:        cfg.DiscordToken,
		Prefix:       cfg.Prefix,
		Categories:   triviaCfg.Categories,
		MaxQuestions: cfg.Trivia.MaxQuestions,
		Throttle: discord.NewThrottle(
			config.Seconds(cfg.Throttle.DelayBetweenCommand),
			cfg.Throttle.MaxPerMinute,
			cfg.Throttle.ExemptCommands,
		),
	}, logger)
	if err != nil {
		store.Close()
		return err
	}

	// listen and serve for metrics server.
	server := metrics.SetupServer(cfg.MetricsAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Run)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping samosa bot")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
		// no new games from here on; running ones see ctx cancelled and exit at their next pause
		engine.Shutdown()
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := server.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	logger.Info("Press Ctrl+C to exit", "metricsAddr", cfg.MetricsAddr, "store", cfg.Store.Backend)
	return g.Wait()
}

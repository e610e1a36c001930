package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samosabot/samosa-bot/keepalive"
	"github.com/samosabot/samosa-bot/logging"
)

type keepaliveConfig struct {
	DiscordToken  string `env:"DISCORD_SECRET,required,notEmpty"`
	ChannelID     string `env:"KEEPALIVE_CHANNEL_ID,required,notEmpty"`
	MentionUserID string `env:"KEEPALIVE_MENTION_USER_ID"`
	BotHealthURL  string `env:"BOT_HEALTH_URL" envDefault:"http://localhost:6060/healthz"`
	LLMBaseURL    string `env:"LLM_BASE_URL"`
	CheckInterval int    `env:"CHECK_INTERVAL" envDefault:"60"`
	AlertInterval int    `env:"ALERT_INTERVAL" envDefault:"3600"`
}

// targets always includes the bot and adds the llm server's /health when a base url is set.
func (c keepaliveConfig) targets() []keepalive.Target {
	targets := []keepalive.Target{{Name: "SamosaBot", URL: c.BotHealthURL}}
	if c.LLMBaseURL != "" {
		targets = append(targets, keepalive.Target{
			Name: "LLM server",
			URL:  strings.TrimSuffix(c.LLMBaseURL, "/") + "/health",
		})
	}
	return targets
}

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "logLevel", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.NewLogger(logging.ParseLevel(logLevel), os.Stdout)

	_ = godotenv.Load()
	var cfg keepaliveConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse keepalive config", "error", err.Error())
		os.Exit(1)
	}

	notifier, err := keepalive.NewDiscordNotifier(cfg.DiscordToken, cfg.ChannelID, cfg.MentionUserID, logger)
	if err != nil {
		logger.Error("failed to create discord notifier", "error", err.Error())
		os.Exit(1)
	}
	defer notifier.Close()

	targets := cfg.targets()
	monitor := keepalive.NewMonitor(
		targets,
		time.Duration(cfg.CheckInterval)*time.Second,
		time.Duration(cfg.AlertInterval)*time.Second,
		notifier,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting keepalive monitor",
		"check_interval", cfg.CheckInterval,
		"alert_interval", cfg.AlertInterval,
		"targets", len(targets))

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("keepalive monitor error", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("keepalive monitor stopped")
}

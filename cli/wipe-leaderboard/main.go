package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/samosabot/samosa-bot/config"
	"github.com/samosabot/samosa-bot/database"
	"github.com/samosabot/samosa-bot/logging"
)

func main() {
	var logLevel string
	var confirm bool
	flag.StringVar(&logLevel, "logLevel", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Actually delete every leaderboard entry")
	flag.Usage = printUsage
	flag.Parse()

	logger := logging.NewLogger(logging.ParseLevel(logLevel), os.Stdout)

	if err := run(context.Background(), confirm, logger); err != nil {
		logger.Error("leaderboard wipe failed", "error", err.Error())
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Trivia leaderboard wipe

Usage:
  wipe-leaderboard -confirm [-logLevel info]

Removes every entry from the store selected by STORE_BACKEND.

Global Environment Variables:
  STORE_BACKEND     postgres (default) or redis
  POSTGRES_URL      PostgreSQL connection string
  REDIS_ADDR        Redis address
  REDIS_PREFIX      Redis key prefix`)
}

var errNotConfirmed = errors.New("refusing to wipe the leaderboard without -confirm")

func run(ctx context.Context, confirm bool, logger *logging.Logger) error {
	if !confirm {
		printUsage()
		return errNotConfirmed
	}

	cfg, err := config.Load()
	if err != nil {
		return err
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
	defer store.Close()

	return wipe(ctx, store, logger)
}

func wipe(ctx context.Context, store database.LeaderboardStore, logger *logging.Logger) error {
	removed, err := store.ClearLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	logger.Info("leaderboard wiped", "removed", removed)
	fmt.Printf("Removed %d leaderboard entries\n", removed)
	return nil
}

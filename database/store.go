package database

import (
	"context"
	"fmt"

	"github.com/samosabot/samosa-bot/logging"
)

// Options selects and addresses a leaderboard backend.
type Options struct {
	Backend       string
	PostgresURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// NewStore opens the configured backend.
func NewStore(ctx context.Context, opts Options, logger *logging.Logger) (LeaderboardStore, error) {
	switch opts.Backend {
	case "", "postgres":
		pg, err := NewPostgres(opts.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "redis":
		rd, err := NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix, logger)
		if err != nil {
			return nil, err
		}
		return rd, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samosabot/samosa-bot/types"
)

// LeaderboardStore persists global trivia totals per user.
type LeaderboardStore interface {
	// IncrementStats adds correct and wrong to the user's totals, creating the entry
	// on first use, and records username as the last seen display name.
	IncrementStats(ctx context.Context, userID, username string, correct, wrong int) error
	// GetUserStats returns zero totals for unknown users.
	GetUserStats(ctx context.Context, userID string) (types.UserStats, error)
	// TopPlayers ranks by total correct desc, then total wrong asc, then username.
	TopPlayers(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
	// ClearLeaderboard removes every entry and reports how many were removed.
	ClearLeaderboard(ctx context.Context) (int64, error)
	Close() error
}

var errNegativeIncrement = errors.New("leaderboard increments must not be negative")

// IncrementStats upserts the user's row in a single statement so concurrent increments commute.
func (p *Postgres) IncrementStats(ctx context.Context, userID, username string, correct, wrong int) error {
	if correct < 0 || wrong < 0 {
		return errNegativeIncrement
	}
	query := `INSERT INTO trivia_leaderboard (user_id, username, total_correct, total_wrong)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
	username = EXCLUDED.username,
	total_correct = trivia_leaderboard.total_correct + EXCLUDED.total_correct,
	total_wrong = trivia_leaderboard.total_wrong + EXCLUDED.total_wrong,
	updated_at = now()`
	_, err := p.connections.ExecContext(ctx, query, userID, username, correct, wrong)
	if err != nil {
		return fmt.Errorf("error incrementing trivia stats: %w", err)
	}
	return nil
}

// GetUserStats gets a single user's totals.
func (p *Postgres) GetUserStats(ctx context.Context, userID string) (types.UserStats, error) {
	var stats types.UserStats
	query := "SELECT total_correct, total_wrong FROM trivia_leaderboard WHERE user_id = $1"
	err := p.connections.GetContext(ctx, &stats, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.UserStats{}, nil
	}
	if err != nil {
		return types.UserStats{}, fmt.Errorf("error getting trivia stats: %w", err)
	}
	return stats, nil
}

// TopPlayers gets the global ranking.
func (p *Postgres) TopPlayers(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	var entries []types.LeaderboardEntry
	query := `SELECT user_id, username, total_correct, total_wrong FROM trivia_leaderboard
ORDER BY total_correct DESC, total_wrong ASC, username ASC LIMIT $1`
	if err := p.connections.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("error getting trivia leaderboard: %w", err)
	}
	return entries, nil
}

// ClearLeaderboard wipes the table.
func (p *Postgres) ClearLeaderboard(ctx context.Context) (int64, error) {
	res, err := p.connections.ExecContext(ctx, "DELETE FROM trivia_leaderboard")
	if err != nil {
		return 0, fmt.Errorf("error clearing trivia leaderboard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting cleared rows: %w", err)
	}
	return n, nil
}

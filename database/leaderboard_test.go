package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Postgres{connections: sqlx.NewDb(db, "sqlmock"), logger: logging.Default()}, mock
}

func TestIncrementStats(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		wrong   int
		execErr error
		wantErr bool
	}{
		{name: "correct answer", correct: 1},
		{name: "wrong answer", wrong: 1},
		{name: "store down", correct: 1, execErr: errors.New("connection reset"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postgres, mock := newMockPostgres(t)

			exp := mock.ExpectExec("INSERT INTO trivia_leaderboard .* ON CONFLICT \\(user_id\\) DO UPDATE SET").
				WithArgs("u1", "Xavier", tt.correct, tt.wrong)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := postgres.IncrementStats(context.Background(), "u1", "Xavier", tt.correct, tt.wrong)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIncrementStats_RejectsNegative(t *testing.T) {
	postgres, mock := newMockPostgres(t)
	err := postgres.IncrementStats(context.Background(), "u1", "Xavier", -1, 0)
	assert.ErrorIs(t, err, errNegativeIncrement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserStats(t *testing.T) {
	t.Run("existing user", func(t *testing.T) {
		postgres, mock := newMockPostgres(t)
		mock.ExpectQuery("SELECT total_correct, total_wrong FROM trivia_leaderboard WHERE user_id = \\$1").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"total_correct", "total_wrong"}).AddRow(7, 3))

		stats, err := postgres.GetUserStats(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, types.UserStats{TotalCorrect: 7, TotalWrong: 3}, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user is zero", func(t *testing.T) {
		postgres, mock := newMockPostgres(t)
		mock.ExpectQuery("SELECT total_correct, total_wrong FROM trivia_leaderboard").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"total_correct", "total_wrong"}))

		stats, err := postgres.GetUserStats(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Equal(t, types.UserStats{}, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTopPlayers(t *testing.T) {
	postgres, mock := newMockPostgres(t)

	expected := []types.LeaderboardEntry{
		{UserID: "u1", Username: "Xavier", TotalCorrect: 10, TotalWrong: 2},
		{UserID: "u2", Username: "Yara", TotalCorrect: 4, TotalWrong: 9},
	}
	rows := sqlmock.NewRows([]string{"user_id", "username", "total_correct", "total_wrong"})
	for _, e := range expected {
		rows.AddRow(e.UserID, e.Username, e.TotalCorrect, e.TotalWrong)
	}
	mock.ExpectQuery("SELECT user_id, username, total_correct, total_wrong FROM trivia_leaderboard\\s+ORDER BY total_correct DESC, total_wrong ASC, username ASC LIMIT \\$1").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := postgres.TopPlayers(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, expected, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearLeaderboard(t *testing.T) {
	postgres, mock := newMockPostgres(t)
	mock.ExpectExec("DELETE FROM trivia_leaderboard").WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := postgres.ClearLeaderboard(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

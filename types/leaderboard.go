package types

// LeaderboardEntry is the durable per-user trivia total. Counters only ever grow.
type LeaderboardEntry struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"`
	TotalCorrect int    `db:"total_correct"`
	TotalWrong   int    `db:"total_wrong"`
}

// UserStats is what a player sees for themselves.
type UserStats struct {
	TotalCorrect int `db:"total_correct"`
	TotalWrong   int `db:"total_wrong"`
}

package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/types"
)

const (
	fieldUsername = "username"
	fieldCorrect  = "total_correct"
	fieldWrong    = "total_wrong"
)

// Redis is the leaderboard store backed by a sorted set of correct answers and a
// hash per user holding the counters and last seen username.
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *logging.Logger
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int, prefix string, logger *logging.Logger) (*Redis, error) {
	if logger == nil {
		logger = logging.Default()
	}

	logger.Info("connecting to redis", "addr", addr, "db", db)
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("error pinging redis", "error", err.Error())
		_ = client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	return newRedisStore(client, prefix, logger), nil
}

func newRedisStore(client redis.UniversalClient, prefix string, logger *logging.Logger) *Redis {
	if prefix == "" {
		prefix = "samosa"
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) leaderboardKey() string {
	return r.prefix + ":trivia:leaderboard"
}

func (r *Redis) userKey(userID string) string {
	return r.prefix + ":trivia:user:" + userID
}

// IncrementStats applies the increments inside MULTI/EXEC.
func (r *Redis) IncrementStats(ctx context.Context, userID, username string, correct, wrong int) error {
	if correct < 0 || wrong < 0 {
		return errNegativeIncrement
	}
	key := r.userKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldUsername, username)
		pipe.HIncrBy(ctx, key, fieldCorrect, int64(correct))
		pipe.HIncrBy(ctx, key, fieldWrong, int64(wrong))
		pipe.ZIncrBy(ctx, r.leaderboardKey(), float64(correct), userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error incrementing trivia stats: %w", err)
	}
	return nil
}

// GetUserStats reads a single user's hash.
func (r *Redis) GetUserStats(ctx context.Context, userID string) (types.UserStats, error) {
	vals, err := r.client.HMGet(ctx, r.userKey(userID), fieldCorrect, fieldWrong).Result()
	if err != nil {
		return types.UserStats{}, fmt.Errorf("error getting trivia stats: %w", err)
	}
	return types.UserStats{
		TotalCorrect: atoi(vals[0]),
		TotalWrong:   atoi(vals[1]),
	}, nil
}

// TopPlayers ranks by the sorted set and breaks ties on total wrong and username.
// Members tied with the last ranked score are fetched too so the tie break is exact.
func (r *Redis) TopPlayers(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	top, err := r.client.ZRevRangeWithScores(ctx, r.leaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting trivia leaderboard: %w", err)
	}
	if len(top) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(top))
	seen := make(map[string]bool, len(top))
	for _, z := range top {
		id := fmt.Sprint(z.Member)
		ids = append(ids, id)
		seen[id] = true
	}
	if len(top) == limit {
		cutoff := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
		tied, err := r.client.ZRangeByScore(ctx, r.leaderboardKey(), &redis.ZRangeBy{Min: cutoff, Max: cutoff}).Result()
		if err != nil {
			return nil, fmt.Errorf("error getting tied leaderboard entries: %w", err)
		}
		for _, id := range tied {
			if !seen[id] {
				ids = append(ids, id)
				seen[id] = true
			}
		}
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.userKey(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("error getting leaderboard entries: %w", err)
	}

	entries := make([]types.LeaderboardEntry, 0, len(ids))
	for i, id := range ids {
		h := cmds[i].Val()
		entries = append(entries, types.LeaderboardEntry{
			UserID:       id,
			Username:     h[fieldUsername],
			TotalCorrect: atoi(h[fieldCorrect]),
			TotalWrong:   atoi(h[fieldWrong]),
		})
	}
	sortEntries(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ClearLeaderboard deletes the sorted set and every user hash it references.
func (r *Redis) ClearLeaderboard(ctx context.Context) (int64, error) {
	ids, err := r.client.ZRange(ctx, r.leaderboardKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("error listing trivia leaderboard: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.userKey(id))
	}
	keys = append(keys, r.leaderboardKey())
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing trivia leaderboard: %w", err)
	}
	return int64(len(ids)), nil
}

// Close closes the client.
func (r *Redis) Close() error {
	r.logger.Info("closing redis connection")
	return r.client.Close()
}

func sortEntries(entries []types.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalCorrect != b.TotalCorrect {
			return a.TotalCorrect > b.TotalCorrect
		}
		if a.TotalWrong != b.TotalWrong {
			return a.TotalWrong < b.TotalWrong
		}
		return a.Username < b.Username
	})
}

func atoi(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
// The server runs fine without it; the leaderboard just hits postgres on
// every request.
var Rdb *redis.Client

// leaderboardKey is where the rendered global ranking is cached.
const leaderboardKey = "moresongs:leaderboard"

// leaderboardTTL bounds how stale the cached ranking can get.
const leaderboardTTL = 30 * time.Second

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// GetLeaderboard returns the cached ranking, unmarshaled into dest. Reports
// false on a miss or when redis is not connected.
func GetLeaderboard(ctx context.Context, dest interface{}) bool {
	if Rdb == nil {
		return false
	}
	data, err := Rdb.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetLeaderboard caches the rendered ranking for leaderboardTTL.
func SetLeaderboard(ctx context.Context, rows interface{}) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	if err := Rdb.Set(ctx, leaderboardKey, data, leaderboardTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}
	return nil
}

// InvalidateLeaderboard drops the cached ranking, called after a score award
// so newly earned points show up promptly.
func InvalidateLeaderboard(ctx context.Context) {
	if Rdb == nil {
		return
	}
	Rdb.Del(ctx, leaderboardKey)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

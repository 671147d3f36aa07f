// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Game holds the gameplay tunables. All of them are overridable through
// environment variables so deployments can shorten or stretch rounds.
type Game struct {
	// RoundDuration is the length of the guessing window per round.
	RoundDuration time.Duration
	// RevealPause is the pause between a round's reveal and the next round.
	RevealPause time.Duration
	// TickInterval is how often game-tick is broadcast while a round plays.
	TickInterval time.Duration
	// Heartbeat is the interval between ping events on idle connections.
	Heartbeat time.Duration
	// DefaultRounds is the round count used when lobby creation omits it.
	DefaultRounds int
}

// Config is the full server configuration read from the environment.
type Config struct {
	Addr string
	Game Game
}

// Load reads the configuration from environment variables, falling back to
// defaults. godotenv/autoload in main populates the environment from .env.
func Load() Config {
	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	return Config{
		Addr: addr,
		Game: Game{
			RoundDuration: getEnvDuration("ROUND_DURATION", 30*time.Second),
			RevealPause:   getEnvDuration("REVEAL_PAUSE", 10*time.Second),
			TickInterval:  getEnvDuration("TICK_INTERVAL", time.Second),
			Heartbeat:     getEnvDuration("HEARTBEAT_INTERVAL", 30*time.Second),
			DefaultRounds: getEnvInt("DEFAULT_ROUNDS", 3),
		},
	}
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

// getEnvDuration is a helper to parse an environment variable as a duration,
// else a default value.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

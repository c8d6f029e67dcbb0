package relay

import (
	"os"
	"strconv"
)

// Config holds the relay settings
type Config struct {
	Addr string

	// Redis; an empty address keeps fan-out in process
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadConfig reads configuration from environment variables with
// sensible defaults
func LoadConfig() *Config {
	return &Config{
		Addr:          envOr("RELAY_ADDR", ":9000"),
		RedisAddr:     envOr("REDIS_ADDR", ""),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envIntOr("REDIS_DB", 0),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

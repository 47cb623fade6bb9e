package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	RedisPass string
	HTTPPort  string
	JWTSecret string

	CacheTTL      time.Duration
	SweepInterval time.Duration
	RetainEvery   time.Duration
	RetentionAge  time.Duration

	MaxTrackedPlayers int
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "tag"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		CacheTTL:      getDuration("SESSION_CACHE_TTL", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),
		RetainEvery:   getDuration("RETENTION_INTERVAL", time.Hour),
		RetentionAge:  getDuration("RETENTION_AGE", 7*24*time.Hour),

		MaxTrackedPlayers: getInt("MAX_TRACKED_PLAYERS", 10000),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

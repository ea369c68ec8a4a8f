// Package config loads process configuration from the environment, the way
// the teacher's cmd/server/main.go getEnv/getEnvInt helpers do, extended
// with godotenv so a ".env" file works in local development the way
// zfogg-sidechain/backend's main.go loads one before reading os.Getenv.
//
// spec.md §6 fixes only "a listen address/port; no required variables for
// the core" — everything else here is ambient (logging, the optional Redis
// broadcaster backend) and carried regardless of that narrow core scope.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting this process reads.
type Config struct {
	Port string

	LogLevel string
	LogFile  string

	BroadcastBufferSize int

	// RedisAddr enables the Redis-backed Broadcaster for cross-process
	// fan-out (see internal/broadcast/redis.go) when non-empty; the
	// in-memory Hub is used standalone otherwise.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from the environment, first loading a ".env"
// file in the working directory if one exists (godotenv.Load silently
// no-ops when it doesn't).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             os.Getenv("LOG_FILE"),
		BroadcastBufferSize: getEnvInt("BROADCAST_BUFFER_SIZE", 16),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

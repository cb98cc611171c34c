package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all session-core configuration.
type Config struct {
	APIBaseURL   string
	ProctorWSURL string
	LogLevel     string
	LogFormat    string

	// CheckpointBackend selects the durable local store: "sqlite",
	// "redis" or "memory".
	CheckpointBackend string
	CheckpointPath    string
	RedisURL          string
	// CheckpointSecret, when set, seals snapshots at rest so remaining
	// time and answers cannot be edited out-of-band.
	CheckpointSecret string

	AutosaveInterval    time.Duration
	TickSaveEvery       int
	ViolationGraceDelay time.Duration
	SubmitTimeout       time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error; .env is optional

	return &Config{
		APIBaseURL:          getEnv("API_BASE_URL", "http://localhost:5000/api"),
		ProctorWSURL:        getEnv("PROCTOR_WS_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "pretty"),
		CheckpointBackend:   getEnv("CHECKPOINT_BACKEND", "sqlite"),
		CheckpointPath:      getEnv("CHECKPOINT_PATH", "./checkpoints.db"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CheckpointSecret:    getEnv("CHECKPOINT_SECRET", ""),
		AutosaveInterval:    time.Duration(getEnvInt("AUTOSAVE_INTERVAL_SECONDS", 30)) * time.Second,
		TickSaveEvery:       getEnvInt("TICK_SAVE_EVERY", 10),
		ViolationGraceDelay: time.Duration(getEnvInt("VIOLATION_GRACE_MS", 1500)) * time.Millisecond,
		SubmitTimeout:       time.Duration(getEnvInt("SUBMIT_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

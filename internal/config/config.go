// Package config handles service configuration
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string

	StorageDriver string // sqlite or postgres
	StoragePath   string
	DatabaseURL   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	CallTimeout   time.Duration

	CaptureEnabled bool
	SampleRate     int

	WorkerCount int
	QueueSize   int

	SessionTTL    time.Duration
	SweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:  getEnv("STORAGE_DRIVER", "sqlite"),
		StoragePath:    getEnv("STORAGE_PATH", "therapytune.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", ""),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", ""),
		CallTimeout:    getEnvDuration("CALL_TIMEOUT", 30*time.Second),
		CaptureEnabled: getEnvBool("CAPTURE_ENABLED", false),
		SampleRate:     getEnvInt("SAMPLE_RATE", 16000),
		WorkerCount:    getEnvInt("WORKER_COUNT", 2),
		QueueSize:      getEnvInt("QUEUE_SIZE", 100),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", time.Hour),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

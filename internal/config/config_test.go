package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clear environment
	envVars := []string{
		"HTTP_ADDR", "STORAGE_DRIVER", "STORAGE_PATH", "DATABASE_URL",
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "CALL_TIMEOUT",
		"CAPTURE_ENABLED", "SAMPLE_RATE", "WORKER_COUNT", "QUEUE_SIZE",
		"SESSION_TTL", "SWEEP_INTERVAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Check defaults
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, "sqlite")
	}
	if cfg.StoragePath != "therapytune.db" {
		t.Errorf("StoragePath = %q, want %q", cfg.StoragePath, "therapytune.db")
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("CallTimeout = %v, want %v", cfg.CallTimeout, 30*time.Second)
	}
	if cfg.CaptureEnabled {
		t.Error("CaptureEnabled should default to false")
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, 16000)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want %d", cfg.WorkerCount, 2)
	}
	if cfg.QueueSize != 100 {
		t.Errorf("QueueSize = %d, want %d", cfg.QueueSize, 100)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, 24*time.Hour)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want %v", cfg.SweepInterval, time.Hour)
	}
}

func TestLoadWithEnv(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("STORAGE_DRIVER", "postgres")
	os.Setenv("DATABASE_URL", "postgres://localhost/therapytune")
	os.Setenv("GEMINI_API_KEY", "test-key")
	os.Setenv("CALL_TIMEOUT", "45s")
	os.Setenv("CAPTURE_ENABLED", "true")
	os.Setenv("SESSION_TTL", "12h")
	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("CALL_TIMEOUT")
		os.Unsetenv("CAPTURE_ENABLED")
		os.Unsetenv("SESSION_TTL")
	}()

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.StorageDriver != "postgres" {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, "postgres")
	}
	if cfg.DatabaseURL != "postgres://localhost/therapytune" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Errorf("GeminiAPIKey = %q, want %q", cfg.GeminiAPIKey, "test-key")
	}
	if cfg.CallTimeout != 45*time.Second {
		t.Errorf("CallTimeout = %v, want %v", cfg.CallTimeout, 45*time.Second)
	}
	if !cfg.CaptureEnabled {
		t.Error("CaptureEnabled should be true")
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, 12*time.Hour)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STRING", "hello")
	defer os.Unsetenv("TEST_STRING")
	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}

	os.Setenv("TEST_INT_INVALID", "not-a-number")
	defer os.Unsetenv("TEST_INT_INVALID")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	os.Setenv("TEST_BOOL_ONE", "1")
	defer os.Unsetenv("TEST_BOOL_ONE")
	if !getEnvBool("TEST_BOOL_ONE", false) {
		t.Error("getEnvBool should return true for '1'")
	}

	os.Setenv("TEST_DURATION", "90s")
	defer os.Unsetenv("TEST_DURATION")
	if v := getEnvDuration("TEST_DURATION", time.Second); v != 90*time.Second {
		t.Errorf("getEnvDuration = %v, want %v", v, 90*time.Second)
	}
	os.Setenv("TEST_DURATION_INVALID", "soon")
	defer os.Unsetenv("TEST_DURATION_INVALID")
	if v := getEnvDuration("TEST_DURATION_INVALID", time.Minute); v != time.Minute {
		t.Errorf("getEnvDuration with invalid = %v, want %v", v, time.Minute)
	}
}

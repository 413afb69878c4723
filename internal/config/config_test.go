package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_TYPE", "DB_PATH", "JWT_SECRET", "SES_FROM_EMAIL", "DEBUG", "RATE_LIMIT", "RATE_WINDOW", "APP_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.DatabasePath != "./gradewatch.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true without JWT_SECRET")
	}
	if cfg.AlertsEnabled() {
		t.Error("AlertsEnabled() = true without SES_FROM_EMAIL")
	}
	if cfg.RateLimit != 60 || cfg.RateWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 60/1m", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SES_FROM_EMAIL", "alerts@example.edu")
	t.Setenv("DEBUG", "true")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_WINDOW", "30s")
	t.Setenv("APP_BASE_URL", "https://grades.example.edu/")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if !cfg.AuthEnabled() || !cfg.AlertsEnabled() || !cfg.Debug {
		t.Errorf("expected auth, alerts and debug enabled: %+v", cfg)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%v, want 10/30s", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.AppBaseURL != "https://grades.example.edu" {
		t.Errorf("AppBaseURL = %q", cfg.AppBaseURL)
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("RATE_LIMIT", "abc")
	t.Setenv("RATE_WINDOW", "-5s")
	t.Setenv("DEBUG", "maybe")

	if got := getEnvInt("RATE_LIMIT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want 7", got)
	}
	if got := getEnvDuration("RATE_WINDOW", time.Hour); got != time.Hour {
		t.Errorf("getEnvDuration = %v, want 1h", got)
	}
	if got := getEnvBool("DEBUG", true); !got {
		t.Error("getEnvBool should fall back to default")
	}
}

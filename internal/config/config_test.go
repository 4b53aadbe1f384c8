package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/game.db")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("ALLOWED_ORIGINS", " http://localhost:3000 , ,http://127.0.0.1:3000")
	t.Setenv("TRANSCRIPT_ENABLED", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" || cfg.DBPath != "/tmp/game.db" {
		t.Errorf("unexpected port/db: %+v", cfg)
	}
	if cfg.SessionTTL != 45*time.Minute {
		t.Errorf("expected 45m TTL, got %v", cfg.SessionTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Transcript.Enabled {
		t.Error("expected transcripts to be disabled")
	}
	if cfg.LLMEnabled() {
		t.Error("LLM must be disabled without an API key")
	}
	if !cfg.IsDevelopment() {
		t.Error("local origins should count as development")
	}
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("ARGUMENT_RATE_LIMIT", "many")
	t.Setenv("TRANSCRIPT_QUEUE_SIZE", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("expected default TTL, got %v", cfg.SessionTTL)
	}
	if cfg.ArgumentLimit.Limit != 10 {
		t.Errorf("expected default rate limit, got %d", cfg.ArgumentLimit.Limit)
	}
	if cfg.Transcript.QueueSize != 1000 {
		t.Errorf("expected default queue size, got %d", cfg.Transcript.QueueSize)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:             "8080",
			DBPath:           "db",
			SessionTTL:       time.Hour,
			TTLSweepInterval: time.Minute,
			Transcript:       TranscriptConfig{Enabled: true, Dir: "t", QueueSize: 1},
			ArgumentLimit:    RateLimitConfig{Limit: 1, Window: time.Second},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}

	broken := []func(*Config){
		func(c *Config) { c.Port = "" },
		func(c *Config) { c.DBPath = "" },
		func(c *Config) { c.SessionTTL = 0 },
		func(c *Config) { c.Transcript.Dir = "" },
		func(c *Config) { c.ArgumentLimit.Window = 0 },
	}
	for i, mutate := range broken {
		c := base()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

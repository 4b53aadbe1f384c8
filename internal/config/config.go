// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port             string
	DBPath           string
	SessionTTL       time.Duration
	TTLSweepInterval time.Duration
	AllowedOrigins   []string
	OpenRouter       OpenRouterConfig
	Transcript       TranscriptConfig
	ArgumentLimit    RateLimitConfig
}

// OpenRouterConfig controls the language model that voices the agents.
// Agents fall back to canned lines when APIKey is empty.
type OpenRouterConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RequestTimeout time.Duration
}

// TranscriptConfig controls NDJSON discussion transcripts.
type TranscriptConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// RateLimitConfig bounds how often a session may submit arguments.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./data/challenge.db"),
		SessionTTL:       getEnvDuration("SESSION_TTL", 2*time.Hour),
		TTLSweepInterval: getEnvDuration("TTL_SWEEP_INTERVAL", 5*time.Minute),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		OpenRouter: OpenRouterConfig{
			APIKey:         getEnv("OPENROUTER_API_KEY", ""),
			Model:          getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			BaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			RequestTimeout: getEnvDuration("OPENROUTER_TIMEOUT", 30*time.Second),
		},
		Transcript: TranscriptConfig{
			Enabled:   getEnvBool("TRANSCRIPT_ENABLED", true),
			Dir:       getEnv("TRANSCRIPT_DIR", "./data/transcripts"),
			QueueSize: queueSize,
		},
		ArgumentLimit: RateLimitConfig{
			Limit:  getEnvInt("ARGUMENT_RATE_LIMIT", 10),
			Window: getEnvDuration("ARGUMENT_RATE_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.TTLSweepInterval <= 0 {
		return fmt.Errorf("TTL_SWEEP_INTERVAL must be > 0")
	}
	if c.Transcript.Enabled && c.Transcript.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty")
	}
	if c.Transcript.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_QUEUE_SIZE must be > 0")
	}
	if c.ArgumentLimit.Limit <= 0 {
		return fmt.Errorf("ARGUMENT_RATE_LIMIT must be > 0")
	}
	if c.ArgumentLimit.Window <= 0 {
		return fmt.Errorf("ARGUMENT_RATE_WINDOW must be > 0")
	}
	return nil
}

// LLMEnabled reports whether agents are voiced by the language model.
func (c *Config) LLMEnabled() bool {
	return c.OpenRouter.APIKey != ""
}

// IsDevelopment returns true when only local origins are allowed.
func (c *Config) IsDevelopment() bool {
	for _, o := range c.AllowedOrigins {
		if !strings.Contains(o, "localhost") && !strings.Contains(o, "127.0.0.1") {
			return false
		}
	}
	return true
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

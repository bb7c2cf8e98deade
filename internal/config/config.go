// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir              string // base directory for all databases, always absolute
	Port                 int
	LogLevel             string
	DevMode              bool // pretty console logging for local runs
	LLMProvider          string // "gemini", "claude", or "" for model-based detection
	LLMModel             string
	GeminiAPIKey         string
	AnthropicAPIKey      string
	LLMTimeout           time.Duration
	ScoringProfile       string // canonical, strict, lenient
	HistoryRetentionDays int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		Port:                 getEnvAsInt("PORT", 8080),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LLMProvider:          getEnv("LLM_PROVIDER", ""),
		LLMModel:             getEnv("LLM_MODEL", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		LLMTimeout:           time.Duration(getEnvAsInt("LLM_TIMEOUT", 90)) * time.Second,
		ScoringProfile:       getEnv("SCORING_PROFILE", "canonical"),
		HistoryRetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 90),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.HistoryRetentionDays < 0 {
		return fmt.Errorf("invalid history retention: %d days", c.HistoryRetentionDays)
	}

	switch c.LLMProvider {
	case "", "gemini", "claude":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.LLMProvider)
	}

	// API keys are optional here. The audit endpoint reports a clear
	// error when the selected provider has no key at request time.
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

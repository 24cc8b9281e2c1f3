package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// LM Studio (OpenAI-compatible inference server)
	LMStudioURL               string
	LMStudioModel             string
	LMStudioStatusTimeout     time.Duration
	LMStudioCompletionTimeout time.Duration
	LMStudioTemperature       float64
	LMStudioMaxTokens         int

	// Fallback
	MockResponsesEnabled bool
	CannedResponsesFile  string

	// Optional backing services
	DatabaseURL string
	RedisURL    string

	// Diagnostics auth
	JWTSecret string

	// Requests per minute per client on chat endpoints, 0 disables limiting
	ChatRateLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                      getEnvOrDefault("PORT", "5000"),
		Env:                       getEnvOrDefault("ENV", "development"),
		LMStudioURL:               strings.TrimRight(getEnvOrDefault("LM_STUDIO_URL", "http://127.0.0.1:1234/v1"), "/"),
		LMStudioModel:             getEnvOrDefault("LM_STUDIO_MODEL", "local-model"),
		LMStudioStatusTimeout:     getEnvAsDurationOrDefault("LM_STUDIO_STATUS_TIMEOUT", 2*time.Second),
		LMStudioCompletionTimeout: getEnvAsDurationOrDefault("LM_STUDIO_COMPLETION_TIMEOUT", 30*time.Second),
		LMStudioTemperature:       getEnvAsFloatOrDefault("LM_STUDIO_TEMPERATURE", 0.7),
		LMStudioMaxTokens:         getEnvAsIntOrDefault("LM_STUDIO_MAX_TOKENS", 500),
		MockResponsesEnabled:      getEnvAsBoolOrDefault("ENABLE_MOCK_RESPONSES", true),
		CannedResponsesFile:       getEnvOrDefault("CANNED_RESPONSES_FILE", ""),
		DatabaseURL:               getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:                  getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:                 getEnvOrDefault("JWT_SECRET", ""),
		ChatRateLimit:             getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MINUTE", 30),
		FrontendURL:               getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.LMStudioURL == "" {
		return fmt.Errorf("LM_STUDIO_URL must not be empty")
	}
	if c.LMStudioStatusTimeout <= 0 || c.LMStudioCompletionTimeout <= 0 {
		return fmt.Errorf("LM Studio timeouts must be positive")
	}
	if c.LMStudioMaxTokens <= 0 {
		return fmt.Errorf("LM_STUDIO_MAX_TOKENS must be positive, got %d", c.LMStudioMaxTokens)
	}
	if c.ChatRateLimit < 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// Accepts Go durations ("2s", "1m30s") or a bare number of seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

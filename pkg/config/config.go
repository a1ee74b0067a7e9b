package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for b3monitor
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Quote source
	Brapi BrapiConfig

	// Redis (quote cache + shared rate limit)
	Redis RedisConfig

	// Periodic refresh (serve mode)
	Refresh RefreshConfig

	// Screen thresholds override (YAML), empty = built-in defaults
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// BrapiConfig holds brapi.dev API configuration
type BrapiConfig struct {
	BaseURL           string
	Token             string
	ListLimit         int
	Modules           []string
	Timeout           time.Duration
	RequestsPerSecond int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	QuoteTTL time.Duration
}

// RefreshConfig controls the scheduled snapshot refresh
type RefreshConfig struct {
	Schedule string // cron expression with seconds
	OnStart  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv in the module
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Brapi: BrapiConfig{
			BaseURL:           strings.TrimRight(getEnv("BRAPI_BASE_URL", "https://brapi.dev"), "/"),
			Token:             getEnv("BRAPI_TOKEN", ""),
			ListLimit:         getEnvAsInt("BRAPI_LIST_LIMIT", 50),
			Modules:           getEnvAsList("BRAPI_MODULES", "financialData,defaultKeyStatistics"),
			Timeout:           getEnvAsDuration("BRAPI_TIMEOUT", "30s"),
			RequestsPerSecond: getEnvAsInt("BRAPI_RPS", 5),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			QuoteTTL: getEnvAsDuration("QUOTE_CACHE_TTL", "5m"),
		},

		Refresh: RefreshConfig{
			Schedule: getEnv("REFRESH_SCHEDULE", "0 */15 * * * *"),
			OnStart:  getEnvAsBool("REFRESH_ON_START", true),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Brapi.BaseURL == "" {
		return fmt.Errorf("BRAPI_BASE_URL is required")
	}

	if c.Brapi.ListLimit <= 0 {
		return fmt.Errorf("BRAPI_LIST_LIMIT must be > 0, got %d", c.Brapi.ListLimit)
	}

	if c.Brapi.RequestsPerSecond <= 0 {
		return fmt.Errorf("BRAPI_RPS must be > 0, got %d", c.Brapi.RequestsPerSecond)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from the working directory, then next to the binary
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package config provides application configuration management.
// It loads settings from environment variables (and an optional .env file)
// and provides defaults for server mode and warmup mode.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are mandatory.
type ValidationMode int

const (
	// ServerMode runs the HTTP chatbot. It starts even without an LLM key
	// so the health endpoint can report the problem.
	ServerMode ValidationMode = iota
	// WarmupMode primes the local cache and needs a live table source.
	WarmupMode
)

// Supported LLM providers.
const (
	ProviderGemini   = "gemini"
	ProviderGroq     = "groq"
	ProviderCerebras = "cerebras"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ServerName      string
	ShutdownTimeout time.Duration
	FrontendDir     string   // Directory with the bundled front-end (index.html)
	AllowedOrigins  []string // CORS origins, "*" allows all

	// Data Configuration
	DataDir   string // Local CSV fallback directory (<table>.csv)
	DataWatch bool   // Reload when CSV files in DataDir change
	CachePath string // SQLite cache of the last good load

	// Remote table store (Supabase PostgREST)
	SupabaseURL string
	SupabaseKey string

	// LLM Configuration
	GoogleAPIKey        string
	GeminiModel         string
	GeminiFallbackModel string
	LLMProvider         string // gemini (default), groq, cerebras
	LLMFallbackProvider string // empty = alternate model of LLMProvider
	GroqAPIKey          string
	GroqModel           string
	CerebrasAPIKey      string
	CerebrasModel       string
	LLMTemperature      float64
	LLMMaxTokens        int
	LLMTimeout          time.Duration
	LLMMaxAttempts      int // per model, on transient errors

	// R2 bucket table source
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2Prefix          string

	// Sentry
	SentryDSN         string
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack logging
	BetterStackToken    string
	BetterStackEndpoint string

	// Chat rate limit per client IP, off unless both rates are positive
	ChatRateBurst     float64
	ChatRatePerMinute float64
	ChatDailyLimit    int

	// Metrics / admin Basic Auth (empty password = no auth)
	MetricsUsername string
	MetricsPassword string
}

// Load reads configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it for mode.
// It attempts to load .env file first, then reads from env vars
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "5000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ServerName:      getEnv(EnvServerName, "baera-chatbot"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		FrontendDir:     getEnv(EnvFrontendDir, "./frontend"),
		AllowedOrigins:  getListEnv(EnvCORSAllowedOrigins, []string{"*"}),

		DataDir:   getEnv(EnvDataDir, "./data"),
		DataWatch: getBoolEnv(EnvDataWatch, false),
		CachePath: getEnv(EnvCachePath, ""),

		SupabaseURL: strings.TrimRight(getEnv(EnvSupabaseURL, ""), "/"),
		SupabaseKey: getEnv(EnvSupabaseKey, ""),

		GoogleAPIKey:        getEnv(EnvGoogleAPIKey, ""),
		GeminiModel:         getEnv(EnvGeminiModel, "gemini-2.0-flash"),
		GeminiFallbackModel: getEnv(EnvGeminiFallbackModel, "gemini-2.5-flash"),
		LLMProvider:         strings.ToLower(getEnv(EnvLLMProvider, ProviderGemini)),
		LLMFallbackProvider: strings.ToLower(getEnv(EnvLLMFallbackProvider, "")),
		GroqAPIKey:          getEnv(EnvGroqAPIKey, ""),
		GroqModel:           getEnv(EnvGroqModel, "llama-3.3-70b-versatile"),
		CerebrasAPIKey:      getEnv(EnvCerebrasAPIKey, ""),
		CerebrasModel:       getEnv(EnvCerebrasModel, "llama-3.3-70b"),
		LLMTemperature:      getFloatEnv(EnvLLMTemperature, 0.7),
		LLMMaxTokens:        getIntEnv(EnvLLMMaxTokens, 2048),
		LLMTimeout:          getDurationEnv(EnvLLMTimeout, LLMGeneration),
		LLMMaxAttempts:      getIntEnv(EnvLLMMaxAttempts, 1),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2Bucket:          getEnv(EnvR2Bucket, ""),
		R2Prefix:          strings.Trim(getEnv(EnvR2Prefix, "tables"), "/"),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		ChatRateBurst:     getFloatEnv(EnvChatRateBurst, 0),
		ChatRatePerMinute: getFloatEnv(EnvChatRatePerMinute, 0),
		ChatDailyLimit:    getIntEnv(EnvChatDailyLimit, 0),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if !isKnownProvider(c.LLMProvider) {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider))
	}
	if c.LLMFallbackProvider != "" && !isKnownProvider(c.LLMFallbackProvider) {
		errs = append(errs, fmt.Errorf("LLM_FALLBACK_PROVIDER %q is not supported", c.LLMFallbackProvider))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errs = append(errs, fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLMTemperature))
	}
	if c.LLMMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens))
	}
	if c.LLMMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_ATTEMPTS must be positive, got %d", c.LLMMaxAttempts))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be positive, got %v", c.LLMTimeout))
	}
	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_KEY must be set together"))
	}
	if c.R2Enabled {
		if c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2Bucket == "" {
			errs = append(errs, errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET are required when R2_ENABLED=true"))
		}
	}
	if c.ChatRateBurst < 0 || c.ChatRatePerMinute < 0 || c.ChatDailyLimit < 0 {
		errs = append(errs, errors.New("CHAT_RATE_BURST, CHAT_RATE_PER_MINUTE and CHAT_DAILY_LIMIT must not be negative"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0, 1], got %v", c.SentrySampleRate))
	}

	if mode == WarmupMode && !c.HasRemoteSource() {
		errs = append(errs, errors.New("warmup requires SUPABASE_URL/SUPABASE_KEY or R2_ENABLED=true"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func isKnownProvider(p string) bool {
	switch p {
	case ProviderGemini, ProviderGroq, ProviderCerebras:
		return true
	}
	return false
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// SQLitePath returns the full path to the SQLite cache file
func (c *Config) SQLitePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	return filepath.Join(c.DataDir, "cache.db")
}

// HasLLM returns true if the key for the selected provider is configured.
func (c *Config) HasLLM() bool {
	return c.APIKeyFor(c.LLMProvider) != ""
}

// HasRemoteSource reports whether a live table source is configured.
func (c *Config) HasRemoteSource() bool {
	return (c.SupabaseURL != "" && c.SupabaseKey != "") || c.R2Enabled
}

// APIKeyFor returns the API key configured for provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case ProviderGemini:
		return c.GoogleAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderCerebras:
		return c.CerebrasAPIKey
	}
	return ""
}

// ModelFor returns the primary model configured for provider.
func (c *Config) ModelFor(provider string) string {
	switch provider {
	case ProviderGemini:
		return c.GeminiModel
	case ProviderGroq:
		return c.GroqModel
	case ProviderCerebras:
		return c.CerebrasModel
	}
	return ""
}

// AIModelLabel returns the model description reported by the health endpoint.
func (c *Config) AIModelLabel() string {
	if c.LLMProvider == ProviderGemini && c.GeminiModel == "gemini-2.0-flash" {
		return "Google Gemini 2.0 Flash"
	}
	return c.LLMProvider + " " + c.ModelFor(c.LLMProvider)
}

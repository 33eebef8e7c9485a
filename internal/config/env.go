// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort               = "PORT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	EnvServerName         = "SERVER_NAME"
	EnvFrontendDir        = "FRONTEND_DIR"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	// Data
	EnvDataDir   = "DATA_DIR"
	EnvDataWatch = "DATA_WATCH"
	EnvCachePath = "CACHE_PATH"

	// Remote table store
	EnvSupabaseURL = "SUPABASE_URL"
	EnvSupabaseKey = "SUPABASE_KEY"

	// LLM
	EnvGoogleAPIKey        = "GOOGLE_API_KEY"
	EnvGeminiModel         = "GEMINI_MODEL"
	EnvGeminiFallbackModel = "GEMINI_FALLBACK_MODEL"
	EnvLLMProvider         = "LLM_PROVIDER"
	EnvLLMFallbackProvider = "LLM_FALLBACK_PROVIDER"
	EnvGroqAPIKey          = "GROQ_API_KEY"
	EnvGroqModel           = "GROQ_MODEL"
	EnvCerebrasAPIKey      = "CEREBRAS_API_KEY"
	EnvCerebrasModel       = "CEREBRAS_MODEL"
	EnvLLMTemperature      = "LLM_TEMPERATURE"
	EnvLLMMaxTokens        = "LLM_MAX_TOKENS"
	EnvLLMTimeout          = "LLM_TIMEOUT"
	EnvLLMMaxAttempts      = "LLM_MAX_ATTEMPTS"

	// R2 bucket source
	EnvR2Enabled         = "R2_ENABLED"
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2Bucket          = "R2_BUCKET"
	EnvR2Prefix          = "R2_PREFIX"

	// Sentry
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_SOURCE_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Chat rate limit
	EnvChatRateBurst     = "CHAT_RATE_BURST"
	EnvChatRatePerMinute = "CHAT_RATE_PER_MINUTE"
	EnvChatDailyLimit    = "CHAT_DAILY_LIMIT"

	// Metrics / admin auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)

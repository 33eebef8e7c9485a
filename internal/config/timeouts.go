// Package config provides centralized timeout constants for the application.
//
// The only slow dependency of a chat turn is the LLM call. Everything else
// (classification, image resolution, session bookkeeping) is in-memory.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Chat payloads are small JSON bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite must cover LLMTurn plus encoding.
	HTTPWrite = 100 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// LLM timeouts
const (
	// LLMGeneration bounds one generation attempt. A timeout is treated
	// like any other generation failure and triggers the fallback model.
	LLMGeneration = 45 * time.Second

	// LLMTurn bounds all attempts of one chat turn, retries and fallback
	// included. Retries that would not fit are skipped.
	LLMTurn = 90 * time.Second
)

// Knowledge loading timeouts
const (
	// TableFetch bounds fetching one table from one source.
	TableFetch = 15 * time.Second

	// KnowledgeLoad bounds a full load across all tables and sources.
	KnowledgeLoad = 2 * time.Minute

	// TableFetchRetryInitial is the first backoff between Supabase retries.
	TableFetchRetryInitial = 500 * time.Millisecond

	// TableFetchMaxRetries is how many times a Supabase request is retried.
	TableFetchMaxRetries = 3

	// DataWatchDebounce coalesces bursts of file events into one reload.
	DataWatchDebounce = 2 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Health and background jobs
const (
	// ReadinessCheckTimeout bounds the readiness check.
	ReadinessCheckTimeout = 3 * time.Second

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = time.Minute

	// RateLimiterCleanup is how often idle rate limiter clients are dropped.
	RateLimiterCleanup = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)

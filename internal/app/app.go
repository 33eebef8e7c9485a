// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/buildinfo"
	"github.com/garyellow/baera-chatbot-go/internal/catalog"
	"github.com/garyellow/baera-chatbot-go/internal/chat"
	"github.com/garyellow/baera-chatbot-go/internal/config"
	"github.com/garyellow/baera-chatbot-go/internal/genai"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/logger"
	"github.com/garyellow/baera-chatbot-go/internal/metrics"
	"github.com/garyellow/baera-chatbot-go/internal/ratelimit"
	"github.com/garyellow/baera-chatbot-go/internal/sentry"
	"github.com/garyellow/baera-chatbot-go/internal/session"
	"github.com/garyellow/baera-chatbot-go/internal/storage"
	"github.com/garyellow/baera-chatbot-go/internal/warmup"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	db             *storage.DB
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	store          *catalog.Store
	engine         *chat.Engine
	generator      *genai.FallbackGenerator // nil when no provider key is configured
	limiter        *ratelimit.Limiter
	readinessState *warmup.ReadinessState
	router         *gin.Engine
	server         *http.Server
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", cfg.ServerName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context() calls pick up session and request ids
	// through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	sentryCfg := sentry.Config{
		DSN:         cfg.SentryDSN,
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}
	if err := sentry.Initialize(sentryCfg); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
	} else if sentryCfg.Enabled() {
		log.Info("Sentry error reporting enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), storage.Options{
		BusyTimeout:     config.DatabaseBusyTimeout,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Table cache opened")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	// Initialize global metrics for genai package
	metrics.InitGlobal(m)

	sources, err := BuildLoader(ctx, cfg, db, m, SourceOptions{LocalCSV: true, CacheFallback: true})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sources: %w", err)
	}
	store := catalog.NewStore(sources.Loader, config.KnowledgeLoad, m)

	generator, err := genai.CreateGenerator(ctx, buildLLMConfig(cfg))
	if err != nil {
		log.WithError(err).Warn("LLM initialization failed, chat replies will report the missing key")
		generator = nil
	}
	if generator != nil {
		log.WithField("provider", generator.Provider().String()).
			WithField("model", generator.Model()).
			Info("LLM generation enabled")
	} else {
		log.Warn("No LLM provider key configured")
	}

	engineCfg := chat.EngineConfig{
		Snapshots: store,
		Sessions:  session.NewStore(m),
		Metrics:   m,
	}
	// Keep the interface nil when there is no generator.
	if generator != nil {
		engineCfg.Generator = generator
	}
	engine := chat.NewEngine(engineCfg)

	limiter := newChatLimiter(cfg, m, log)

	app := &Application{
		cfg:       cfg,
		logger:    log,
		db:        db,
		metrics:   m,
		registry:  registry,
		store:     store,
		engine:    engine,
		generator: generator,
		limiter:   limiter,
		readinessState: warmup.NewReadinessState(func() bool {
			return store.Current().Ready()
		}),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(loggingMiddleware(log))
	app.registerRoutes(router)
	app.router = router

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// buildLLMConfig creates an LLMConfig from the application config.
// The fallback is LLM_FALLBACK_PROVIDER when it has a key, otherwise the
// alternate model of the primary provider.
func buildLLMConfig(cfg *config.Config) genai.LLMConfig {
	llmCfg := genai.DefaultLLMConfig()
	llmCfg.Temperature = float32(cfg.LLMTemperature)
	llmCfg.MaxTokens = cfg.LLMMaxTokens
	llmCfg.AttemptTimeout = cfg.LLMTimeout
	llmCfg.TurnTimeout = config.LLMTurn
	llmCfg.Retry.MaxAttempts = cfg.LLMMaxAttempts

	primary := genai.Provider(cfg.LLMProvider)
	llmCfg.Primary = genai.ModelConfig{
		Provider: primary,
		APIKey:   cfg.APIKeyFor(cfg.LLMProvider),
		Model:    cfg.ModelFor(cfg.LLMProvider),
	}

	if fb := cfg.LLMFallbackProvider; fb != "" && fb != cfg.LLMProvider && cfg.APIKeyFor(fb) != "" {
		llmCfg.Fallback = genai.ModelConfig{
			Provider: genai.Provider(fb),
			APIKey:   cfg.APIKeyFor(fb),
			Model:    cfg.ModelFor(fb),
		}
		return llmCfg
	}

	fallbackModel := genai.AlternateModel(primary)
	if primary == genai.ProviderGemini {
		fallbackModel = cfg.GeminiFallbackModel
	}
	llmCfg.Fallback = genai.ModelConfig{
		Provider: primary,
		APIKey:   llmCfg.Primary.APIKey,
		Model:    fallbackModel,
	}
	return llmCfg
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context to stop the loader, the watcher and the metrics job
//  3. Wait for background jobs to complete
//  4. Close resources in order (HTTP server, limiter, LLM clients, database, logger)
//
// Closing the database only after step 3 keeps an in-flight reload from
// writing back to a closed cache.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.initialLoad(ctx)
	})

	if a.cfg.DataWatch {
		watcher, err := knowledge.NewWatcher(a.cfg.DataDir, config.DataWatchDebounce, func(ctx context.Context) {
			a.reload(ctx, "data_watch")
		})
		if err != nil {
			a.logger.WithError(err).WithField("dir", a.cfg.DataDir).Warn("Data watch disabled")
		} else {
			a.wg.Go(func() {
				defer func() { _ = watcher.Close() }()
				watcher.Run(ctx)
			})
			a.logger.WithField("dir", a.cfg.DataDir).Info("Watching data directory for CSV changes")
		}
	}

	a.wg.Go(func() {
		a.updateGaugeMetrics(ctx)
	})
}

// initialLoad builds the first snapshot, then marks the service loaded even
// when the knowledge is empty so /readyz reports the actual reason.
func (a *Application) initialLoad(ctx context.Context) {
	a.reload(ctx, "startup")
	a.readinessState.MarkLoaded()

	status := a.readinessState.Status()
	if status.Ready {
		a.logger.Info("Service marked as ready after initial knowledge load")
	} else {
		a.logger.WithField("reason", status.Reason).Warn("Service started without knowledge")
	}
}

// reload rebuilds the snapshot. Failures keep the previous snapshot.
func (a *Application) reload(ctx context.Context, trigger string) (*catalog.Snapshot, error) {
	start := time.Now()
	snap, err := a.store.Reload(ctx)
	duration := time.Since(start)

	if a.metrics != nil {
		a.metrics.RecordJob("knowledge_reload", trigger, duration.Seconds())
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			sentry.CaptureExceptionWithTags(ctx, err, map[string]string{"job": "knowledge_reload", "trigger": trigger})
		}
		a.logger.WithError(err).WithField("trigger", trigger).Error("Knowledge reload failed")
		return snap, err
	}

	a.logger.WithField("trigger", trigger).
		WithField("tables", len(snap.Tables)).
		WithField("knowledge_chars", len(snap.Knowledge)).
		WithField("documents", len(snap.Documents)).
		WithField("duration_ms", duration.Milliseconds()).
		Info("Knowledge reloaded")
	return snap, nil
}

// updateGaugeMetrics periodically records the session and client gauges.
func (a *Application) updateGaugeMetrics(ctx context.Context) {
	a.logger.Debug("Gauge metrics job started")
	defer a.logger.Debug("Gauge metrics job stopped")

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordGaugeMetrics()
		}
	}
}

func (a *Application) recordGaugeMetrics() {
	if a.metrics == nil {
		return
	}
	a.metrics.SetSessionsActive(a.engine.Sessions().Count())
	if a.limiter != nil {
		a.metrics.SetRateLimitClients(a.limiter.Clients())
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and releases resources. It must run after
// background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if err := a.generator.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "llm").Error("Component close error")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	sentry.Flush(2 * time.Second)

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// newChatLimiter returns nil unless both chat rates are configured.
func newChatLimiter(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) *ratelimit.Limiter {
	limitCfg := ratelimit.Config{
		Burst:         cfg.ChatRateBurst,
		PerMinute:     cfg.ChatRatePerMinute,
		DailyLimit:    cfg.ChatDailyLimit,
		CleanupPeriod: config.RateLimiterCleanup,
		Metrics:       m,
	}
	if !limitCfg.Enabled() {
		return nil
	}
	log.WithField("burst", cfg.ChatRateBurst).
		WithField("per_minute", cfg.ChatRatePerMinute).
		WithField("daily", cfg.ChatDailyLimit).
		Info("Chat rate limiting enabled")
	return ratelimit.New(limitCfg)
}

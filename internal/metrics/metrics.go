// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat metrics
	ChatTurnsTotal      *prometheus.CounterVec
	ChatDurationSeconds *prometheus.HistogramVec

	// LLM metrics
	LLMTotal         *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	LLMFallbackTotal *prometheus.CounterVec

	// Knowledge metrics
	KnowledgeLoadTotal *prometheus.CounterVec
	KnowledgeTables    *prometheus.GaugeVec
	CatalogEntries     *prometheus.GaugeVec

	// Session metrics
	SessionsActive prometheus.Gauge

	ImagesAttachedTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimitDropsTotal *prometheus.CounterVec
	RateLimitClients    prometheus.Gauge

	// Background job metrics
	JobDuration *prometheus.HistogramVec
}

// Package-level handles used by code paths that have no Metrics reference.
// They stay nil until InitGlobal is called, so callers must nil-check.
var (
	LLMTotal         *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	LLMFallbackTotal *prometheus.CounterVec
)

// InitGlobal publishes the LLM collectors of m as package-level handles.
func InitGlobal(m *Metrics) {
	if m == nil {
		return
	}
	LLMTotal = m.LLMTotal
	LLMDuration = m.LLMDuration
	LLMFallbackTotal = m.LLMFallbackTotal
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ChatTurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_chat_turns_total",
				Help: "Total number of chat turns by routed intent and outcome",
			},
			[]string{"intent", "outcome"}, // intent: document, notice, location, none; outcome: success, llm_error, unavailable
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "baera_chat_duration_seconds",
				Help:    "End-to-end chat turn duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 45, 90},
			},
			[]string{"outcome"},
		),

		LLMTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_llm_total",
				Help: "Total number of LLM generation calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, timeout, rate_limit, auth_error, ...
		),

		LLMDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "baera_llm_duration_seconds",
				Help:    "Successful LLM generation duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"provider"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_llm_fallback_total",
				Help: "Total number of successful fallback generations",
			},
			[]string{"from", "to"},
		),

		KnowledgeLoadTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_knowledge_load_total",
				Help: "Total number of table loads by source and status",
			},
			[]string{"source", "status"}, // status: success, empty, error
		),

		KnowledgeTables: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "baera_knowledge_tables",
				Help: "Number of tables in the current snapshot by the source that served them",
			},
			[]string{"source"},
		),

		CatalogEntries: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "baera_catalog_entries",
				Help: "Number of entries per image catalog in the current snapshot",
			},
			[]string{"catalog"}, // catalog: documents, notices, locations
		),

		SessionsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "baera_sessions_active",
				Help: "Number of sessions with recorded history",
			},
		),

		ImagesAttachedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_images_attached_total",
				Help: "Total number of images attached to replies by catalog",
			},
			[]string{"catalog"},
		),

		RateLimitDropsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "baera_rate_limit_dropped_total",
				Help: "Total number of chat requests rejected by the rate limiter",
			},
			[]string{"limit"}, // limit: burst, daily
		),

		RateLimitClients: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "baera_rate_limit_clients",
				Help: "Number of clients tracked by the rate limiter",
			},
		),

		JobDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "baera_job_duration_seconds",
				Help:    "Background job duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"job", "trigger"}, // trigger: startup, data_watch, admin
		),
	}

	return m
}

// RecordChatTurn records a completed turn.
func (m *Metrics) RecordChatTurn(intent, outcome string, duration float64) {
	if m == nil {
		return
	}
	m.ChatTurnsTotal.WithLabelValues(intent, outcome).Inc()
	m.ChatDurationSeconds.WithLabelValues(outcome).Observe(duration)
}

// RecordKnowledgeLoad records one table load attempt against a source.
func (m *Metrics) RecordKnowledgeLoad(source, status string) {
	if m == nil {
		return
	}
	m.KnowledgeLoadTotal.WithLabelValues(source, status).Inc()
}

// SetKnowledgeTables replaces the per-source table gauge.
func (m *Metrics) SetKnowledgeTables(bySource map[string]int) {
	if m == nil {
		return
	}
	m.KnowledgeTables.Reset()
	for source, n := range bySource {
		m.KnowledgeTables.WithLabelValues(source).Set(float64(n))
	}
}

// SetCatalogEntries sets the entry count of one catalog.
func (m *Metrics) SetCatalogEntries(catalog string, n int) {
	if m == nil {
		return
	}
	m.CatalogEntries.WithLabelValues(catalog).Set(float64(n))
}

// SetSessionsActive sets the active session gauge.
func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordImagesAttached adds n attached images for a catalog.
func (m *Metrics) RecordImagesAttached(catalog string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ImagesAttachedTotal.WithLabelValues(catalog).Add(float64(n))
}

// RecordRateLimitDrop records a rejected request.
func (m *Metrics) RecordRateLimitDrop(limit string) {
	if m == nil {
		return
	}
	m.RateLimitDropsTotal.WithLabelValues(limit).Inc()
}

// SetRateLimitClients sets the tracked client gauge.
func (m *Metrics) SetRateLimitClients(n int) {
	if m == nil {
		return
	}
	m.RateLimitClients.Set(float64(n))
}

// RecordJob records one background job run.
func (m *Metrics) RecordJob(job, trigger string, duration float64) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(job, trigger).Observe(duration)
}

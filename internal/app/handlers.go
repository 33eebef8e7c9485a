package app

import (
	"context"
	"errors"
	"math"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/garyellow/baera-chatbot-go/internal/config"
	domerrors "github.com/garyellow/baera-chatbot-go/internal/errors"
	"github.com/garyellow/baera-chatbot-go/internal/knowledge"
	"github.com/garyellow/baera-chatbot-go/internal/resolver"
	"github.com/garyellow/baera-chatbot-go/internal/sentry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// User-facing messages.
const (
	msgEmptyMessage = "Mensaje vacío"
	msgReset        = "Conversación reiniciada"
	msgRateLimited  = "Has enviado demasiados mensajes. Por favor, espera un momento antes de continuar."
)

var (
	summaryErrors = domerrors.NewWrapper("app", "data_summary")
	reloadErrors  = domerrors.NewWrapper("app", "admin_reload")
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	Sources       []string           `json:"sources"`
	Images        []string           `json:"images"`
	SectionImages []resolver.Section `json:"section_images"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

type tableResponse struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Source string `json:"source"`
}

// registerRoutes mounts every endpoint on router.
func (a *Application) registerRoutes(router *gin.Engine) {
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)

	authEnabled := a.cfg.MetricsPassword != ""
	router.GET("/metrics",
		basicAuthMiddleware(authEnabled, "metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/health", a.handleHealth)
	api.POST("/chat", a.handleChat)
	api.POST("/reset", a.handleReset)
	api.GET("/data/summary", a.handleDataSummary)

	// Reloading without credentials is never exposed.
	if authEnabled {
		api.POST("/admin/reload",
			basicAuthMiddleware(true, "admin", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
			a.handleReload)
	}

	router.NoRoute(a.serveFrontend)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	if !a.readinessState.IsReady() {
		status := a.readinessState.Status()
		a.logger.WithField("elapsed_seconds", status.ElapsedSeconds).
			WithField("reason", status.Reason).
			Debug("Readiness check: not ready")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
			"progress": gin.H{
				"elapsed_seconds": status.ElapsedSeconds,
			},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	// The cache only backs reloads; a broken cache degrades but does not
	// stop the service from answering.
	cache := "connected"
	if a.db == nil {
		cache = "disabled"
	} else if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check: table cache unavailable")
		cache = "unavailable"
	}

	snap := a.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"cache":  cache,
		"knowledge": gin.H{
			"tables":          len(snap.Tables),
			"knowledge_chars": len(snap.Knowledge),
			"documents":       len(snap.Documents),
			"notices":         len(snap.Notices),
			"loaded_at":       snap.LoadedAt,
		},
		"features": a.getFeatures(),
	})
}

func (a *Application) getFeatures() map[string]bool {
	return map[string]bool{
		"llm":          a.generator != nil,
		"llm_fallback": a.generator != nil && a.generator.HasFallback(),
		"rate_limit":   a.limiter != nil,
		"data_watch":   a.cfg.DataWatch,
		"admin_reload": a.cfg.MetricsPassword != "",
	}
}

func (a *Application) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"chatbot_ready": a.store.Current().Ready(),
		"ai_model":      a.cfg.AIModelLabel(),
	})
}

func (a *Application) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyMessage})
		return
	}

	if a.limiter != nil {
		if d := a.limiter.Allow(c.ClientIP()); !d.Allowed {
			seconds := int(math.Ceil(d.RetryAfter.Seconds()))
			a.logger.WithField("limit", d.Limit).
				WithField("client_ip", c.ClientIP()).
				Debug("Chat request rate limited")
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       msgRateLimited,
				"retry_after": seconds,
			})
			return
		}
	}

	reply, err := a.engine.Respond(c.Request.Context(), req.Message, req.SessionID)
	if errors.Is(err, domerrors.ErrEmptyInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyMessage})
		return
	}
	if err != nil {
		sentry.CaptureExceptionWithTags(c.Request.Context(), err, map[string]string{"handler": "chat"})
		a.logger.WithError(err).Error("Chat turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   domerrors.GetUserMessage(err, err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Success:       true,
		Message:       reply.Message,
		Sources:       reply.Sources,
		Images:        reply.Images,
		SectionImages: reply.Sections,
	})
}

func (a *Application) handleReset(c *gin.Context) {
	var req resetRequest
	// A missing or malformed body resets the default session.
	_ = c.ShouldBindJSON(&req)

	a.engine.Reset(req.SessionID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msgReset,
	})
}

func (a *Application) handleDataSummary(c *gin.Context) {
	summary, err := knowledge.Summarize(a.cfg.DataDir, knowledge.SummaryFiles)
	if err != nil {
		err = summaryErrors.Wrap(err, "No se pudieron leer los archivos de datos")
		a.logger.WithError(err).Error("Data summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   domerrors.GetUserMessage(err, err.Error()),
		})
		return
	}

	snap := a.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"success":                  true,
		"summary":                  summary,
		"knowledge_base_size":      len(snap.Knowledge),
		"documentos_catalogo_size": len(snap.Documents),
	})
}

func (a *Application) handleReload(c *gin.Context) {
	snap, err := a.reload(c.Request.Context(), "admin")

	tables := make([]tableResponse, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		tables = append(tables, tableResponse{Name: t.Name, Rows: t.Rows, Source: t.Source})
	}

	if err != nil {
		err = reloadErrors.Wrapf(err, "No se pudo recargar la base de conocimiento: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":             false,
			"error":               domerrors.GetUserMessage(err, err.Error()),
			"tables":              tables,
			"knowledge_base_size": len(snap.Knowledge),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"tables":              tables,
		"knowledge_base_size": len(snap.Knowledge),
	})
}

// serveFrontend serves files from the front-end directory. Unknown paths
// fall back to index.html so client-side routes work; /api paths never do.
func (a *Application) serveFrontend(c *gin.Context) {
	reqPath := c.Request.URL.Path
	if reqPath == "/api" || strings.HasPrefix(reqPath, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}

	dir := a.cfg.FrontendDir
	if dir == "" {
		c.Status(http.StatusNotFound)
		return
	}

	// path.Clean on a rooted path cannot climb above dir.
	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+reqPath)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		c.File(name)
		return
	}

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(index)
}

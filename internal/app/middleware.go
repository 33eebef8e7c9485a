package app

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/ctxutil"
	"github.com/garyellow/baera-chatbot-go/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// headerRequestID is echoed on every response.
const headerRequestID = "X-Request-Id"

// securityHeadersMiddleware adds security headers to responses. The policy
// lets the bundled front-end load its own assets and remote document images.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy",
			"default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; "+
				"font-src 'self' data:; connect-src 'self'; frame-ancestors 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// corsMiddleware answers cross-origin requests from allowed origins. A "*"
// entry allows every origin. Preflight requests end here with 204.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			switch {
			case allowAll:
				c.Header("Access-Control-Allow-Origin", "*")
			case slices.Contains(allowed, origin):
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+headerRequestID)
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDFrom returns the first request id header present, or a new id.
func requestIDFrom(c *gin.Context) string {
	for _, h := range []string{"X-Request-Id", "X-Correlation-Id"} {
		if id := strings.TrimSpace(c.GetHeader(h)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := requestIDFrom(c)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Header(headerRequestID, requestID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("client_ip", c.ClientIP()).
			WithRequestID(requestID)

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		case status >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}

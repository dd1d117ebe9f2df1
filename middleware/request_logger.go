package middleware

import (
	"log/slog"
	"time"

	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger writes one access line per request. Scan requests also
// carry the upload size and the backend that produced the record.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if c.Request.ContentLength > 0 {
			attrs = append(attrs, "upload_bytes", c.Request.ContentLength)
		}
		if provenance := c.GetString(ProvenanceKey); provenance != "" {
			attrs = append(attrs, ProvenanceKey, provenance)
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.WithContext(c.Request.Context()).Log(c.Request.Context(), level, "request completed", attrs...)
	}
}

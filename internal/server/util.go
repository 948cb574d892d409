package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/welltrack/internal/auth"
	"github.com/loykin/welltrack/internal/record"
)

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	bp = strings.TrimRight(bp, "/")
	return bp
}

// parseToday reads the optional today query parameter.
func parseToday(c *gin.Context, fallback record.Date) (record.Date, error) {
	s := c.Query("today")
	if s == "" {
		return fallback, nil
	}
	return record.ParseDate(s)
}

// optionalDate treats an empty date string like null.
func optionalDate(d *record.Date) *record.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

// requestLogger logs one line per request once the handler chain is done.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"user", auth.Actor(c),
		)
	}
}

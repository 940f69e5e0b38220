package log

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// GinLogger logs one line per request. 4xx log at warn, 5xx at error.
func GinLogger(logger *Logger) gin.HandlerFunc {
	logger = logger.WithComponent(ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		args := []any{
			FieldMethod, c.Request.Method,
			FieldPath, path,
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, FieldError, c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "HTTP request completed", args...)
	}
}

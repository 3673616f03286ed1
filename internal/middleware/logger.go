package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func Logger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rid := c.GetString(RequestIDHeader)
		evt := l.Info()
		if status >= 500 {
			evt = l.Error()
		}
		evt.
			Str("request_id", rid).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("user_id", c.GetInt64("user_id")).
			Dur("latency", latency).
			Msg("request")
	}
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
)

const userIDKey = "userID"

// requireUser trusts the identity header set by the authenticating proxy.
func requireUser(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "category": "unauthorized"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		e := logger.Info()
		if status >= 500 {
			e = logger.Error()
		} else if status >= 400 {
			e = logger.Warn()
		}
		e.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Str("user_id", c.GetString(userIDKey)).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/models"
)

type auditSink interface {
	Create(ctx context.Context, entry *models.SystemLog) error
}

// Audit records a system log entry after successful mutating requests.
func Audit(sink auditSink, category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.SystemLog{
			Category: category,
			Message:  c.Request.Method + " " + c.FullPath(),
		}
		if claims, ok := c.Get(ContextUserKey); ok {
			if typed, ok := claims.(*models.JWTClaims); ok {
				entry.UserID = &typed.UserID
			}
		}
		entry.Meta, _ = json.Marshal(map[string]interface{}{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		})

		_ = sink.Create(c.Request.Context(), entry)
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/pkg/response"
)

// WithResponseMeta stamps the request start time so every success envelope
// reports its handler latency.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.MarkStart(c)
		c.Next()
	}
}

// SetCacheHit records whether the response payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	response.SetMeta(c, "cache_hit", hit)
}

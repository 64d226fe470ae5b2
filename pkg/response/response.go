package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

const (
	metaContextKey  = "response_meta"
	startContextKey = "response_start"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// MarkStart stamps the request start time used for the processing_time_ms
// metadata on success envelopes.
func MarkStart(c *gin.Context) {
	c.Set(startContextKey, time.Now())
}

// SetMeta records one response metadata entry for the current request.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if stored, ok := c.Get(metaContextKey); ok {
		if typed, ok := stored.(map[string]interface{}); ok {
			typed[key] = value
			return
		}
	}
	c.Set(metaContextKey, map[string]interface{}{key: value})
}

// contextMeta collects metadata accumulated on the request, adding the elapsed
// handler time when MarkStart ran. Elapsed time is computed here because the
// envelope serializes before any post-handler middleware runs.
func contextMeta(c *gin.Context) map[string]interface{} {
	var meta map[string]interface{}
	if stored, ok := c.Get(metaContextKey); ok {
		if typed, ok := stored.(map[string]interface{}); ok {
			meta = typed
		}
	}
	if stored, ok := c.Get(startContextKey); ok {
		if start, ok := stored.(time.Time); ok {
			if meta == nil {
				meta = make(map[string]interface{})
			}
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}

// JSON sends a success response with optional pagination metadata. Metadata
// recorded on the request context is merged with any explicitly passed map.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination, Meta: contextMeta(c)}
	if len(meta) > 0 && meta[0] != nil {
		if envelope.Meta == nil {
			envelope.Meta = make(map[string]interface{})
		}
		for k, v := range meta[0] {
			envelope.Meta[k] = v
		}
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

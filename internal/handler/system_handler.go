package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/models"
	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// SystemHandler exposes the administrative freeze, audit log and status
// endpoints.
type SystemHandler struct {
	lock    *service.SystemLockService
	logs    *service.SystemLogService
	metrics *service.MetricsService
}

// NewSystemHandler constructs SystemHandler.
func NewSystemHandler(lock *service.SystemLockService, logs *service.SystemLogService, metrics *service.MetricsService) *SystemHandler {
	return &SystemHandler{lock: lock, logs: logs, metrics: metrics}
}

// LockState godoc
// @Summary Get the system lock state
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/lock [get]
func (h *SystemHandler) LockState(c *gin.Context) {
	state, err := h.lock.State(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// EngageLock godoc
// @Summary Engage the system lock
// @Tags System
// @Accept json
// @Produce json
// @Param payload body object false "Lock reason"
// @Success 204 {object} response.Envelope
// @Router /system/lock [put]
func (h *SystemHandler) EngageLock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)
	if err := h.lock.Engage(c.Request.Context(), claims.UserID, payload.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReleaseLock godoc
// @Summary Release the system lock
// @Tags System
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /system/lock [delete]
func (h *SystemHandler) ReleaseLock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.lock.Release(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Logs godoc
// @Summary List audit log entries
// @Tags System
// @Produce json
// @Param category query string false "Filter by category"
// @Param userId query string false "Filter by acting user"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /system/logs [get]
func (h *SystemHandler) Logs(c *gin.Context) {
	var filter models.SystemLogFilter
	filter.Category = strings.ToUpper(c.Query("category"))
	filter.UserID = c.Query("userId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	entries, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Status godoc
// @Summary Aggregated runtime metrics snapshot
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/status [get]
func (h *SystemHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

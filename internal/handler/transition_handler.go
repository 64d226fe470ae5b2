package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// TransitionHandler exposes the academic year transition endpoint.
type TransitionHandler struct {
	transitions *service.TransitionService
	lock        *service.SystemLockService
	metrics     *service.MetricsService
	requireLock bool
}

// NewTransitionHandler constructs TransitionHandler. lock and metrics may be
// nil; requireLock gates the run behind the administrative freeze.
func NewTransitionHandler(transitions *service.TransitionService, lock *service.SystemLockService, metrics *service.MetricsService, requireLock bool) *TransitionHandler {
	return &TransitionHandler{transitions: transitions, lock: lock, metrics: metrics, requireLock: requireLock}
}

// Run godoc
// @Summary Run the academic year transition for a program
// @Description Validates the whole transition plan and applies it atomically. A validation rejection returns 200 with success=false and the log trail; nothing is written in that case.
// @Tags Transitions
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /programs/{id}/transition [post]
func (h *TransitionHandler) Run(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.requireLock && h.lock != nil {
		if err := h.lock.RequireLocked(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}

	result, err := h.transitions.Run(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordTransitionRun(result.Success)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/middleware"
	"github.com/eti-mis/academics-api/internal/models"
	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// TranscriptHandler exposes transcript build, export and approval endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	students    *service.StudentService
	exports     *service.ExportService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService, students *service.StudentService, exports *service.ExportService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, students: students, exports: exports}
}

// Get godoc
// @Summary Build a student's transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, fromCache, err := h.transcripts.BuildWithCacheStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, fromCache)
	response.JSON(c, http.StatusOK, transcript, nil)
}

// Export godoc
// @Summary Download a student's transcript as CSV or PDF
// @Tags Transcripts
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /students/{id}/transcript/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	studentID := c.Param("id")
	transcript, err := h.transcripts.Build(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	var payload []byte
	var filename, contentType string
	switch format {
	case "csv":
		payload, filename, err = h.exports.TranscriptCSV(transcript, student)
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.exports.TranscriptPDF(transcript, student)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// RequestSnapshot godoc
// @Summary Freeze the current transcript into a pending approval request
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/transcript/requests [post]
func (h *TranscriptHandler) RequestSnapshot(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.transcripts.RequestSnapshot(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListRequests godoc
// @Summary List transcript requests by workflow state
// @Tags Transcripts
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED" default(PENDING)
// @Success 200 {object} response.Envelope
// @Router /transcript-requests [get]
func (h *TranscriptHandler) ListRequests(c *gin.Context) {
	status := models.TranscriptRequestStatus(strings.ToUpper(c.DefaultQuery("status", string(models.TranscriptRequestPending))))
	requests, err := h.transcripts.ListRequests(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ReviewRequest godoc
// @Summary Approve or reject a pending transcript request
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body object true "Review decision"
// @Success 204 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /transcript-requests/{id}/review [put]
func (h *TranscriptHandler) ReviewRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.transcripts.ReviewRequest(c.Request.Context(), c.Param("id"), payload.Approve, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Snapshot godoc
// @Summary Get the frozen transcript stored on a request
// @Tags Transcripts
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transcript-requests/{id}/snapshot [get]
func (h *TranscriptHandler) Snapshot(c *gin.Context) {
	transcript, err := h.transcripts.SnapshotTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

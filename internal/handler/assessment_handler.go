package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// AssessmentHandler exposes assessment task and grading endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// CreateTask godoc
// @Summary Create assessment task with provisioned score rows
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /assessment-tasks [post]
func (h *AssessmentHandler) CreateTask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.CreatedBy = claims.UserID
	task, err := h.assessments.CreateTask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// ListTasks godoc
// @Summary List assessment tasks for a course offering and semester
// @Tags Assessments
// @Produce json
// @Param courseId query string true "Course offering ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-tasks [get]
func (h *AssessmentHandler) ListTasks(c *gin.Context) {
	tasks, err := h.assessments.ListTasks(c.Request.Context(), c.Query("courseId"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// ListScores godoc
// @Summary List the grading sheet for a task
// @Tags Assessments
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-tasks/{id}/scores [get]
func (h *AssessmentHandler) ListScores(c *gin.Context) {
	scores, err := h.assessments.ListScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// SaveScore godoc
// @Summary Record marks for one student and recompute the final record
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.SaveScoreRequest true "Score payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assessment-tasks/{id}/scores [put]
func (h *AssessmentHandler) SaveScore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.TaskID = c.Param("id")
	req.GradedBy = claims.UserID
	if err := h.assessments.SaveScore(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FinalRecord godoc
// @Summary Get the derived final course record for a student
// @Tags Assessments
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course offering ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/final [get]
func (h *AssessmentHandler) FinalRecord(c *gin.Context) {
	assessment, err := h.assessments.FinalRecord(c.Request.Context(), c.Query("studentId"), c.Query("courseId"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

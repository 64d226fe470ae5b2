package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// AcademicYearHandler exposes academic year and semester endpoints.
type AcademicYearHandler struct {
	years *service.AcademicYearService
}

// NewAcademicYearHandler constructs AcademicYearHandler.
func NewAcademicYearHandler(years *service.AcademicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{years: years}
}

// Create godoc
// @Summary Create academic year
// @Tags Academic Years
// @Accept json
// @Produce json
// @Param payload body service.CreateAcademicYearRequest true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicYearHandler) Create(c *gin.Context) {
	var req service.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.years.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// List godoc
// @Summary List academic years
// @Tags Academic Years
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicYearHandler) List(c *gin.Context) {
	years, err := h.years.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// MarkReady godoc
// @Summary Mark academic year ready for transition
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 204 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /academic-years/{id}/ready [put]
func (h *AcademicYearHandler) MarkReady(c *gin.Context) {
	if err := h.years.MarkReady(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activate godoc
// @Summary Force-activate an academic year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 204 {object} response.Envelope
// @Router /academic-years/{id}/activate [put]
func (h *AcademicYearHandler) Activate(c *gin.Context) {
	if err := h.years.Activate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSemester godoc
// @Summary Create semester under an academic year
// @Tags Academic Years
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *AcademicYearHandler) CreateSemester(c *gin.Context) {
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.years.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// ListSemesters godoc
// @Summary List semesters for an academic year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/semesters [get]
func (h *AcademicYearHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.years.ListSemesters(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

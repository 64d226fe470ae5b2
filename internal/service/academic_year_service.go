package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type academicYearRepo interface {
	Create(ctx context.Context, year *models.AcademicYear) error
	List(ctx context.Context) ([]models.AcademicYear, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	ListActive(ctx context.Context) ([]models.AcademicYear, error)
	SetReady(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string) error
}

type semesterRepo interface {
	Create(ctx context.Context, semester *models.Semester) error
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	ListByYear(ctx context.Context, academicYearID string) ([]models.Semester, error)
}

// CreateAcademicYearRequest creates a year in its initial state.
type CreateAcademicYearRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateSemesterRequest creates a semester under a year and level.
type CreateSemesterRequest struct {
	Name             string `json:"name" validate:"required"`
	AcademicYearID   string `json:"academic_year_id" validate:"required"`
	LevelID          string `json:"level_id" validate:"required"`
	StartDate        string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	IsActive         bool   `json:"is_active"`
	RegistrationOpen bool   `json:"registration_open"`
}

// AcademicYearService manages academic years and semesters, including the
// ready flag that arms the transition engine.
type AcademicYearService struct {
	years     academicYearRepo
	semesters semesterRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService constructs AcademicYearService.
func NewAcademicYearService(years academicYearRepo, semesters semesterRepo, validate *validator.Validate, logger *zap.Logger) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{years: years, semesters: semesters, validator: validate, logger: logger}
}

// Create registers a new academic year. Years always start inactive and not
// ready; only MarkReady and the transition engine change the flags.
func (s *AcademicYearService) Create(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	year := &models.AcademicYear{Name: req.Name}
	if t, ok := parseDate(req.StartDate); ok {
		year.StartDate = &t
	}
	if t, ok := parseDate(req.EndDate); ok {
		year.EndDate = &t
	}
	if err := s.years.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	s.logger.Info("academic year created", zap.String("year_id", year.ID), zap.String("name", year.Name))
	return year, nil
}

// List returns all academic years.
func (s *AcademicYearService) List(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.years.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// MarkReady flags a year as next in line for the transition. The active year
// can never be marked ready; that would make the transition a no-op loop.
func (s *AcademicYearService) MarkReady(ctx context.Context, id string) error {
	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	if year.IsActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "the active academic year cannot be marked ready")
	}
	if err := s.years.SetReady(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark year ready")
	}
	s.logger.Info("academic year marked ready", zap.String("year_id", id))
	return nil
}

// Activate force-activates a year. Bootstrap use only; routine activation is
// the transition engine's job.
func (s *AcademicYearService) Activate(ctx context.Context, id string) error {
	if err := s.years.SetActive(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate year")
	}
	s.logger.Info("academic year activated", zap.String("year_id", id))
	return nil
}

// CreateSemester creates a semester under a year for a level.
func (s *AcademicYearService) CreateSemester(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if _, err := s.years.FindByID(ctx, req.AcademicYearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	semester := &models.Semester{
		Name:             req.Name,
		AcademicYearID:   req.AcademicYearID,
		LevelID:          req.LevelID,
		IsActive:         req.IsActive,
		RegistrationOpen: req.RegistrationOpen,
	}
	if t, ok := parseDate(req.StartDate); ok {
		semester.StartDate = &t
	}
	if t, ok := parseDate(req.EndDate); ok {
		semester.EndDate = &t
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// ListSemesters returns all semesters under one year.
func (s *AcademicYearService) ListSemesters(ctx context.Context, academicYearID string) ([]models.Semester, error) {
	semesters, err := s.semesters.ListByYear(ctx, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, nil
}

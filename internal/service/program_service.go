package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type programRepo interface {
	CreateWithLevels(ctx context.Context, program *models.Program, levels []models.ProgramLevel) error
	FindByID(ctx context.Context, id string) (*models.Program, error)
	List(ctx context.Context) ([]models.Program, error)
	ListLevels(ctx context.Context, programID string) ([]models.ProgramLevel, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	ListCourses(ctx context.Context, programID string) ([]models.Course, error)
}

// awardBaseNumbers gives the level number shared by all years of non-bachelor
// awards. Bachelor programs instead number their levels 100, 200, and so on.
var awardBaseNumbers = map[models.AwardType]int{
	models.AwardCertificate: 100,
	models.AwardDiploma:     200,
	models.AwardMasters:     500,
}

// CreateProgramRequest creates a program with its generated level ladder.
type CreateProgramRequest struct {
	Name          string           `json:"name" validate:"required"`
	Code          string           `json:"code" validate:"required"`
	DepartmentID  string           `json:"department_id" validate:"required"`
	AwardType     models.AwardType `json:"award_type" validate:"required,oneof=BACHELOR DIPLOMA CERTIFICATE MASTERS"`
	DurationYears int              `json:"duration_years" validate:"required,min=1,max=6"`
	Description   string           `json:"description"`
}

// CreateCourseRequest adds a base catalog course to a program.
type CreateCourseRequest struct {
	ProgramID    string `json:"program_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Title        string `json:"title" validate:"required"`
	CreditHours  int    `json:"credit_hours" validate:"required,min=1"`
	Description  string `json:"description"`
}

// ProgramService manages the program catalog: programs, their level ladders
// and base courses.
type ProgramService struct {
	programs  programRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs ProgramService.
func NewProgramService(programs programRepo, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{programs: programs, validator: validate, logger: logger}
}

// LevelsForProgram derives the level ladder for an award type and duration.
// Bachelor programs climb in hundreds (100, 200, ...); other awards keep one
// number per award across every year, so a two-year diploma has two levels
// both numbered 200, distinguished by their order.
func LevelsForProgram(awardType models.AwardType, durationYears int) []models.ProgramLevel {
	levels := make([]models.ProgramLevel, 0, durationYears)
	for year := 1; year <= durationYears; year++ {
		number := year * 100
		if awardType != models.AwardBachelor {
			number = awardBaseNumbers[awardType]
		}
		levels = append(levels, models.ProgramLevel{
			Name:   fmt.Sprintf("Level %d", number),
			Number: number,
			Order:  year,
		})
	}
	return levels
}

// Create registers a program and generates its level ladder in one step.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program := &models.Program{
		Name:          req.Name,
		Code:          req.Code,
		DepartmentID:  &req.DepartmentID,
		AwardType:     req.AwardType,
		DurationYears: req.DurationYears,
	}
	if req.Description != "" {
		program.Description = &req.Description
	}
	levels := LevelsForProgram(req.AwardType, req.DurationYears)
	if err := s.programs.CreateWithLevels(ctx, program, levels); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.logger.Info("program created",
		zap.String("program_id", program.ID),
		zap.String("award_type", string(program.AwardType)),
		zap.Int("levels", len(levels)))
	return program, nil
}

// List returns all programs.
func (s *ProgramService) List(ctx context.Context) ([]models.Program, error) {
	programs, err := s.programs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns one program.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Levels returns the program's level ladder in promotion order.
func (s *ProgramService) Levels(ctx context.Context, programID string) ([]models.ProgramLevel, error) {
	levels, err := s.programs.ListLevels(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return levels, nil
}

// AddCourse adds a base catalog course to a program. Offerings are minted
// from the catalog by the transition engine, not created here.
func (s *ProgramService) AddCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	course := &models.Course{
		ProgramID:    req.ProgramID,
		DepartmentID: &req.DepartmentID,
		Code:         req.Code,
		Title:        req.Title,
		CreditHours:  req.CreditHours,
	}
	if req.Description != "" {
		course.Description = &req.Description
	}
	if err := s.programs.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Courses returns the program's base catalog.
func (s *ProgramService) Courses(ctx context.Context, programID string) ([]models.Course, error) {
	courses, err := s.programs.ListCourses(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

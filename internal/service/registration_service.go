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

type registrationRepo interface {
	Create(ctx context.Context, registration *models.StudentRegistration) error
	FindByID(ctx context.Context, id string) (*models.StudentRegistration, error)
	FindForSemester(ctx context.Context, studentID, semesterID string) (*models.StudentRegistration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
}

type registrationEnrollmentReader interface {
	FindCurrent(ctx context.Context, studentID string) (*models.Enrollment, error)
}

type registrationSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type registrationOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgramCourse, error)
}

type registrationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// SubmitRegistrationRequest submits a course selection for the student's
// current semester.
type SubmitRegistrationRequest struct {
	StudentID string   `json:"student_id" validate:"required"`
	CourseIDs []string `json:"course_ids" validate:"required,min=1,dive,required"`
}

// RegistrationService validates and records semester course registrations.
// Registration requires a current (payment-verified) enrollment and an open
// registration window, and each selected offering must belong to the
// student's enrolled level and semester.
type RegistrationService struct {
	registrations registrationRepo
	enrollments   registrationEnrollmentReader
	semesters     registrationSemesterReader
	offerings     registrationOfferingReader
	students      registrationStudentReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(registrations registrationRepo, enrollments registrationEnrollmentReader, semesters registrationSemesterReader, offerings registrationOfferingReader, students registrationStudentReader, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		enrollments:   enrollments,
		semesters:     semesters,
		offerings:     offerings,
		students:      students,
		validator:     validate,
		logger:        logger,
	}
}

// Submit records the student's course selection for their current semester.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRegistrationRequest) (*models.StudentRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ProgramID == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not attached to a program")
	}

	enrollment, err := s.enrollments.FindCurrent(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has no verified enrollment for the current semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	semester, err := s.semesters.FindByID(ctx, enrollment.SemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	if !semester.RegistrationOpen {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "registration window is closed for this semester")
	}

	if existing, err := s.registrations.FindForSemester(ctx, req.StudentID, semester.ID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered for this semester")
	} else if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}

	for _, courseID := range req.CourseIDs {
		offering, err := s.offerings.FindByID(ctx, courseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course offering %s not found", courseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course offering")
		}
		if !offering.IsActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is not currently offered", offering.Code))
		}
		if offering.SemesterID != semester.ID || offering.LevelID != enrollment.LevelID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is outside the student's level and semester", offering.Code))
		}
	}

	registration := &models.StudentRegistration{
		StudentID:      req.StudentID,
		AcademicYearID: semester.AcademicYearID,
		SemesterID:     semester.ID,
		ProgramID:      *student.ProgramID,
		LevelID:        &enrollment.LevelID,
		CourseIDs:      req.CourseIDs,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	s.logger.Info("registration submitted",
		zap.String("student_id", req.StudentID),
		zap.String("semester_id", semester.ID),
		zap.Int("courses", len(req.CourseIDs)))
	return registration, nil
}

// Get returns one registration with its course selection.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.StudentRegistration, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// Review approves or rejects a submitted registration.
func (s *RegistrationService) Review(ctx context.Context, id string, approve bool) error {
	status := models.RegistrationRejected
	if approve {
		status = models.RegistrationApproved
	}
	if err := s.registrations.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review registration")
	}
	return nil
}

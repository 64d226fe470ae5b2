package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type paymentRepo interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
}

type enrollmentRepo interface {
	EnrollVerified(ctx context.Context, paymentID string, paidAt time.Time, enrollment *models.Enrollment) error
	FindCurrent(ctx context.Context, studentID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

// RecordPaymentRequest records a fee payment awaiting verification.
type RecordPaymentRequest struct {
	StudentID      string  `json:"student_id" validate:"required"`
	AcademicYearID string  `json:"academic_year_id" validate:"required"`
	SemesterID     string  `json:"semester_id" validate:"required"`
	AmountExpected float64 `json:"amount_expected" validate:"required,gt=0"`
	AmountPaid     float64 `json:"amount_paid" validate:"required,gt=0"`
	Reference      string  `json:"reference" validate:"required"`
}

// EnrollmentService ties payments to enrollments: verifying a payment is the
// single act that enrolls a student into a level and semester.
type EnrollmentService struct {
	payments    paymentRepo
	enrollments enrollmentRepo
	students    enrollmentStudentReader
	semesters   enrollmentSemesterReader
	audit       systemLogWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. audit may be nil.
func NewEnrollmentService(payments paymentRepo, enrollments enrollmentRepo, students enrollmentStudentReader, semesters enrollmentSemesterReader, audit systemLogWriter, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		payments:    payments,
		enrollments: enrollments,
		students:    students,
		semesters:   semesters,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// RecordPayment stores an unverified payment claim.
func (s *EnrollmentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	payment := &models.Payment{
		StudentID:      req.StudentID,
		AcademicYearID: req.AcademicYearID,
		SemesterID:     req.SemesterID,
		AmountExpected: req.AmountExpected,
		AmountPaid:     req.AmountPaid,
		Reference:      req.Reference,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}

// VerifyPayment confirms a payment and enrolls the student into the paid-for
// semester. Both writes happen in one repository transaction, so a failed
// enrollment insert leaves the payment unverified and retryable. Re-verifying
// is rejected, and the enrollment write clears any previous current row.
func (s *EnrollmentService) VerifyPayment(ctx context.Context, paymentID, verifiedBy string) (*models.Enrollment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.IsVerified {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already verified")
	}
	if payment.AmountPaid < payment.AmountExpected {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment does not cover the expected amount")
	}

	semester, err := s.semesters.FindByID(ctx, payment.SemesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	enrollment := &models.Enrollment{
		StudentID:  payment.StudentID,
		LevelID:    semester.LevelID,
		SemesterID: semester.ID,
	}
	if err := s.enrollments.EnrollVerified(ctx, paymentID, time.Now().UTC(), enrollment); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment already verified")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment")
	}

	s.writeAudit(ctx, verifiedBy, payment, enrollment)
	s.logger.Info("payment verified and student enrolled",
		zap.String("payment_id", paymentID),
		zap.String("student_id", payment.StudentID),
		zap.String("semester_id", semester.ID))
	return enrollment, nil
}

// CurrentEnrollment returns the student's single current enrollment.
func (s *EnrollmentService) CurrentEnrollment(ctx context.Context, studentID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindCurrent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no current enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Payments returns a student's payment history.
func (s *EnrollmentService) Payments(ctx context.Context, studentID string) ([]models.Payment, error) {
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// History returns a student's enrollment history.
func (s *EnrollmentService) History(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func (s *EnrollmentService) writeAudit(ctx context.Context, verifiedBy string, payment *models.Payment, enrollment *models.Enrollment) {
	if s.audit == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{
		"payment_id":    payment.ID,
		"enrollment_id": enrollment.ID,
		"semester_id":   enrollment.SemesterID,
	})
	entry := &models.SystemLog{
		Category: models.LogCategoryFinance,
		Message:  "payment verified, student enrolled",
		Meta:     meta,
	}
	if verifiedBy != "" {
		entry.UserID = &verifiedBy
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("payment audit write failed", zap.Error(err))
	}
}

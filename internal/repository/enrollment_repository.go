package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// EnrollmentRepository manages payment-proof enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// EnrollVerified flags the payment verified and writes the payment-proof
// enrollment in one transaction: mark the payment, clear is_current on the
// student's other enrollments, insert the new current row. A payment already
// verified (or missing) yields sql.ErrNoRows and nothing changes, so a
// failure partway never strands a verified payment without its enrollment.
func (r *EnrollmentRepository) EnrollVerified(ctx context.Context, paymentID string, paidAt time.Time, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.IsCurrent = true
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verify enrollment: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE payments SET is_verified = TRUE, date_paid = $2 WHERE id = $1 AND is_verified = FALSE`, paymentID, paidAt)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark payment verified: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx, `UPDATE enrollments SET is_current = FALSE WHERE student_id = $1 AND is_current = TRUE`, enrollment.StudentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear current enrollments: %w", err)
	}
	const query = `INSERT INTO enrollments (id, student_id, level_id, semester_id, is_current, enrolled_at)
        VALUES (:id, :student_id, :level_id, :semester_id, :is_current, :enrolled_at)`
	if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create enrollment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verify enrollment: %w", err)
	}
	return nil
}

// FindCurrent returns the student's single current enrollment.
func (r *EnrollmentRepository) FindCurrent(ctx context.Context, studentID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, level_id, semester_id, is_current, enrolled_at
        FROM enrollments WHERE student_id = $1 AND is_current = TRUE LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find current enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByStudent returns a student's enrollment history, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, level_id, semester_id, is_current, enrolled_at
        FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

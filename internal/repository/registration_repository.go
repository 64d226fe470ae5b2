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

// RegistrationRepository manages semester course registrations and their
// selected course sets.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, student_id, academic_year_id, semester_id, program_id, level_id, status, submitted_at`

// Create inserts a registration together with its course rows in one
// transaction. A registration with no course rows is never visible.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.StudentRegistration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.Status == "" {
		registration.Status = models.RegistrationSubmitted
	}
	registration.SubmittedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create registration: %w", err)
	}
	const query = `INSERT INTO student_registrations (id, student_id, academic_year_id, semester_id, program_id, level_id, status, submitted_at)
        VALUES (:id, :student_id, :academic_year_id, :semester_id, :program_id, :level_id, :status, :submitted_at)`
	if _, err := tx.NamedExecContext(ctx, query, registration); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create registration: %w", err)
	}
	for _, courseID := range registration.CourseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registration_courses (id, registration_id, program_course_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), registration.ID, courseID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create registration course: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create registration: %w", err)
	}
	return nil
}

// FindByID returns one registration with its course IDs loaded.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.StudentRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_registrations WHERE id = $1 LIMIT 1`, registrationColumns)
	var registration models.StudentRegistration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	if err := r.db.SelectContext(ctx, &registration.CourseIDs,
		`SELECT program_course_id FROM registration_courses WHERE registration_id = $1`, id); err != nil {
		return nil, fmt.Errorf("load registration courses: %w", err)
	}
	return &registration, nil
}

// FindForSemester returns the student's registration in one semester, if any.
func (r *RegistrationRepository) FindForSemester(ctx context.Context, studentID, semesterID string) (*models.StudentRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_registrations WHERE student_id = $1 AND semester_id = $2 LIMIT 1`, registrationColumns)
	var registration models.StudentRegistration
	if err := r.db.GetContext(ctx, &registration, query, studentID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration for semester: %w", err)
	}
	if err := r.db.SelectContext(ctx, &registration.CourseIDs,
		`SELECT program_course_id FROM registration_courses WHERE registration_id = $1`, registration.ID); err != nil {
		return nil, fmt.Errorf("load registration courses: %w", err)
	}
	return &registration, nil
}

// UpdateStatus moves a registration through the review workflow.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE student_registrations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// StudentIDsByCourseAndSemester returns the students registered for a course
// offering in a semester. Task provisioning fans score rows out to this set.
func (r *RegistrationRepository) StudentIDsByCourseAndSemester(ctx context.Context, programCourseID, semesterID string) ([]string, error) {
	const query = `SELECT sr.student_id
        FROM student_registrations sr
        JOIN registration_courses rc ON rc.registration_id = sr.id
        WHERE rc.program_course_id = $1 AND sr.semester_id = $2
        ORDER BY sr.student_id`
	var studentIDs []string
	if err := r.db.SelectContext(ctx, &studentIDs, query, programCourseID, semesterID); err != nil {
		return nil, fmt.Errorf("list registered students: %w", err)
	}
	return studentIDs, nil
}

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

// AssessmentRepository manages the derived final course records and the
// transcript read queries built on top of them.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Upsert writes the recomputed final record for a (student, course, semester)
// key. A single ON CONFLICT statement keeps the recompute atomic under
// concurrent grading of the same student.
func (r *AssessmentRepository) Upsert(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	assessment.DateRecorded = time.Now().UTC()
	const query = `INSERT INTO assessments (id, student_id, course_id, program_id, semester_id, score, grade, recorded_by, date_recorded)
        VALUES (:id, :student_id, :course_id, :program_id, :semester_id, :score, :grade, :recorded_by, :date_recorded)
        ON CONFLICT (student_id, course_id, semester_id) DO UPDATE SET
            score = EXCLUDED.score,
            grade = EXCLUDED.grade,
            recorded_by = EXCLUDED.recorded_by,
            date_recorded = EXCLUDED.date_recorded`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}

// Find returns the final record for one (student, course, semester) key.
func (r *AssessmentRepository) Find(ctx context.Context, studentID, courseID, semesterID string) (*models.Assessment, error) {
	const query = `SELECT id, student_id, course_id, program_id, semester_id, score, grade, recorded_by, date_recorded
        FROM assessments WHERE student_id = $1 AND course_id = $2 AND semester_id = $3 LIMIT 1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, studentID, courseID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return &assessment, nil
}

// ListByStudent returns all of a student's final records.
func (r *AssessmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error) {
	const query = `SELECT id, student_id, course_id, program_id, semester_id, score, grade, recorded_by, date_recorded
        FROM assessments WHERE student_id = $1 ORDER BY date_recorded`
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, studentID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// TranscriptRows returns the student's final records joined with course,
// semester and level context, ordered level then semester start date. The
// transcript builder consumes these rows in order.
func (r *AssessmentRepository) TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT
            a.course_id,
            pc.code AS course_code,
            pc.title AS course_title,
            pc.credit_hours,
            a.score,
            a.grade,
            a.semester_id,
            sem.name AS semester_name,
            sem.start_date AS semester_start,
            pl.id AS level_id,
            pl.name AS level_name,
            pl.sort_order AS level_order
        FROM assessments a
        JOIN program_courses pc ON pc.id = a.course_id
        JOIN semesters sem ON sem.id = a.semester_id
        JOIN program_levels pl ON pl.id = pc.level_id
        WHERE a.student_id = $1
        ORDER BY pl.sort_order, sem.start_date, pc.title`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcript rows: %w", err)
	}
	return rows, nil
}

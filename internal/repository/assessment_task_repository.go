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

// AssessmentTaskRepository manages gradable tasks and their per-student
// score rows.
type AssessmentTaskRepository struct {
	db *sqlx.DB
}

// NewAssessmentTaskRepository constructs the repository.
func NewAssessmentTaskRepository(db *sqlx.DB) *AssessmentTaskRepository {
	return &AssessmentTaskRepository{db: db}
}

// CreateWithScores inserts a task and one ungraded score row per registered
// student in a single transaction, so the lecturer's grading sheet is
// complete the moment the task exists.
func (r *AssessmentTaskRepository) CreateWithScores(ctx context.Context, task *models.AssessmentTask, studentIDs []string) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create task: %w", err)
	}
	const taskQuery = `INSERT INTO assessment_tasks (id, course_id, semester_id, category_id, title, task_type, total_marks, created_by, created_at)
        VALUES (:id, :course_id, :semester_id, :category_id, :title, :task_type, :total_marks, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, taskQuery, task); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create assessment task: %w", err)
	}
	for _, studentID := range studentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assessment_task_scores (id, task_id, student_id) VALUES ($1, $2, $3)
             ON CONFLICT (task_id, student_id) DO NOTHING`,
			uuid.NewString(), task.ID, studentID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create task score row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create task: %w", err)
	}
	return nil
}

// FindByID returns one task.
func (r *AssessmentTaskRepository) FindByID(ctx context.Context, id string) (*models.AssessmentTask, error) {
	const query = `SELECT id, course_id, semester_id, category_id, title, task_type, total_marks, created_by, created_at
        FROM assessment_tasks WHERE id = $1 LIMIT 1`
	var task models.AssessmentTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assessment task: %w", err)
	}
	return &task, nil
}

// ListByCourseAndSemester returns tasks for an offering in a semester.
func (r *AssessmentTaskRepository) ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.AssessmentTask, error) {
	const query = `SELECT id, course_id, semester_id, category_id, title, task_type, total_marks, created_by, created_at
        FROM assessment_tasks WHERE course_id = $1 AND semester_id = $2 ORDER BY created_at`
	var tasks []models.AssessmentTask
	if err := r.db.SelectContext(ctx, &tasks, query, courseID, semesterID); err != nil {
		return nil, fmt.Errorf("list assessment tasks: %w", err)
	}
	return tasks, nil
}

// FindScore returns one score row for a task + student pair.
func (r *AssessmentTaskRepository) FindScore(ctx context.Context, taskID, studentID string) (*models.AssessmentTaskScore, error) {
	const query = `SELECT id, task_id, student_id, marks_obtained, graded_by, graded_at
        FROM assessment_task_scores WHERE task_id = $1 AND student_id = $2 LIMIT 1`
	var score models.AssessmentTaskScore
	if err := r.db.GetContext(ctx, &score, query, taskID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task score: %w", err)
	}
	return &score, nil
}

// ListScoresByTask returns the grading sheet for one task.
func (r *AssessmentTaskRepository) ListScoresByTask(ctx context.Context, taskID string) ([]models.AssessmentTaskScore, error) {
	const query = `SELECT id, task_id, student_id, marks_obtained, graded_by, graded_at
        FROM assessment_task_scores WHERE task_id = $1 ORDER BY student_id`
	var scores []models.AssessmentTaskScore
	if err := r.db.SelectContext(ctx, &scores, query, taskID); err != nil {
		return nil, fmt.Errorf("list task scores: %w", err)
	}
	return scores, nil
}

// UpdateMarks grades one score row. Marks may exceed the task total only if
// the caller allowed it; validation happens in the service.
func (r *AssessmentTaskRepository) UpdateMarks(ctx context.Context, taskID, studentID string, marks float64, gradedBy string) error {
	const query = `UPDATE assessment_task_scores
        SET marks_obtained = $3, graded_by = $4, graded_at = $5
        WHERE task_id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, query, taskID, studentID, marks, gradedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update task marks: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListGraded returns the student's graded scores for one course + semester,
// joined with task totals and category roles. Ungraded rows are excluded;
// the aggregator only sees marks that exist.
func (r *AssessmentTaskRepository) ListGraded(ctx context.Context, studentID, courseID, semesterID string) ([]models.GradedScore, error) {
	const query = `SELECT ats.marks_obtained, at.total_marks, ac.system_role AS category_role
        FROM assessment_task_scores ats
        JOIN assessment_tasks at ON at.id = ats.task_id
        JOIN assessment_categories ac ON ac.id = at.category_id
        WHERE ats.student_id = $1 AND at.course_id = $2 AND at.semester_id = $3
          AND ats.marks_obtained IS NOT NULL`
	var scores []models.GradedScore
	if err := r.db.SelectContext(ctx, &scores, query, studentID, courseID, semesterID); err != nil {
		return nil, fmt.Errorf("list graded scores: %w", err)
	}
	return scores, nil
}

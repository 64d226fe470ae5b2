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

// ProgramRepository manages programs, their levels and base courses.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// CreateWithLevels inserts a program together with its level ladder in one
// transaction, so a program is never visible without its levels.
func (r *ProgramRepository) CreateWithLevels(ctx context.Context, program *models.Program, levels []models.ProgramLevel) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	program.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create program: %w", err)
	}
	const programQuery = `INSERT INTO programs (id, name, code, department_id, award_type, duration_years, description, created_at)
        VALUES (:id, :name, :code, :department_id, :award_type, :duration_years, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, programQuery, program); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create program: %w", err)
	}
	const levelQuery = `INSERT INTO program_levels (id, program_id, name, number, sort_order, created_at)
        VALUES (:id, :program_id, :name, :number, :sort_order, :created_at)`
	for i := range levels {
		if levels[i].ID == "" {
			levels[i].ID = uuid.NewString()
		}
		levels[i].ProgramID = program.ID
		levels[i].CreatedAt = program.CreatedAt
		if _, err := tx.NamedExecContext(ctx, levelQuery, levels[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create program level: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create program: %w", err)
	}
	return nil
}

// FindByID returns one program.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, name, code, department_id, award_type, duration_years, description, created_at FROM programs WHERE id = $1 LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

// List returns all programs.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, name, code, department_id, award_type, duration_years, description, created_at FROM programs ORDER BY name`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// ListLevels returns a program's levels ordered by promotion sequence.
func (r *ProgramRepository) ListLevels(ctx context.Context, programID string) ([]models.ProgramLevel, error) {
	const query = `SELECT id, program_id, name, number, sort_order, created_at FROM program_levels WHERE program_id = $1 ORDER BY sort_order`
	var levels []models.ProgramLevel
	if err := r.db.SelectContext(ctx, &levels, query, programID); err != nil {
		return nil, fmt.Errorf("list program levels: %w", err)
	}
	return levels, nil
}

// CreateCourse inserts a base catalog course for a program.
func (r *ProgramRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO courses (id, program_id, department_id, code, title, credit_hours, description, created_at)
        VALUES (:id, :program_id, :department_id, :code, :title, :credit_hours, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListCourses returns a program's base catalog courses.
func (r *ProgramRepository) ListCourses(ctx context.Context, programID string) ([]models.Course, error) {
	const query = `SELECT id, program_id, department_id, code, title, credit_hours, description, created_at FROM courses WHERE program_id = $1 ORDER BY title`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, programID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

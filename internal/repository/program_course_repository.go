package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// ProgramCourseRepository reads course offerings. Offering creation and
// deactivation happen inside the transition transaction and live in
// TransitionRepository.
type ProgramCourseRepository struct {
	db *sqlx.DB
}

// NewProgramCourseRepository constructs the repository.
func NewProgramCourseRepository(db *sqlx.DB) *ProgramCourseRepository {
	return &ProgramCourseRepository{db: db}
}

const programCourseColumns = `id, base_course_id, program_id, level_id, semester_id, code, title, credit_hours, is_active, created_at`

// FindByID returns one offering.
func (r *ProgramCourseRepository) FindByID(ctx context.Context, id string) (*models.ProgramCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM program_courses WHERE id = $1 LIMIT 1`, programCourseColumns)
	var course models.ProgramCourse
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program course: %w", err)
	}
	return &course, nil
}

// ListActiveByProgram returns the currently offered courses for a program.
func (r *ProgramCourseRepository) ListActiveByProgram(ctx context.Context, programID string) ([]models.ProgramCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM program_courses WHERE program_id = $1 AND is_active = TRUE ORDER BY title`, programCourseColumns)
	var courses []models.ProgramCourse
	if err := r.db.SelectContext(ctx, &courses, query, programID); err != nil {
		return nil, fmt.Errorf("list active program courses: %w", err)
	}
	return courses, nil
}

// ListBySemester returns offerings for a semester, active ones first.
func (r *ProgramCourseRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.ProgramCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM program_courses WHERE semester_id = $1 ORDER BY is_active DESC, title`, programCourseColumns)
	var courses []models.ProgramCourse
	if err := r.db.SelectContext(ctx, &courses, query, semesterID); err != nil {
		return nil, fmt.Errorf("list program courses by semester: %w", err)
	}
	return courses, nil
}

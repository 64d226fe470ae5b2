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

// SemesterRepository manages semester persistence.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

const semesterColumns = `id, name, academic_year_id, level_id, start_date, end_date, is_active, registration_open, created_at, updated_at`

// Create inserts a semester.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	semester.CreatedAt = now
	semester.UpdatedAt = now
	const query = `INSERT INTO semesters (id, name, academic_year_id, level_id, start_date, end_date, is_active, registration_open, created_at, updated_at)
        VALUES (:id, :name, :academic_year_id, :level_id, :start_date, :end_date, :is_active, :registration_open, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// FindByID returns one semester.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters WHERE id = $1 LIMIT 1`, semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester: %w", err)
	}
	return &semester, nil
}

// ListByYear returns all semesters for one academic year.
func (r *SemesterRepository) ListByYear(ctx context.Context, academicYearID string) ([]models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters WHERE academic_year_id = $1 ORDER BY start_date NULLS LAST, name`, semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list semesters by year: %w", err)
	}
	return semesters, nil
}

// ListActiveByLevelAndYear returns all active semesters for a level within an
// academic year. The transition engine requires exactly one; returning the
// full list lets it report zero and more-than-one distinctly.
func (r *SemesterRepository) ListActiveByLevelAndYear(ctx context.Context, levelID, academicYearID string) ([]models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters WHERE level_id = $1 AND academic_year_id = $2 AND is_active = TRUE ORDER BY name`, semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, levelID, academicYearID); err != nil {
		return nil, fmt.Errorf("list active semesters: %w", err)
	}
	return semesters, nil
}

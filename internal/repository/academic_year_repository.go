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

// AcademicYearRepository manages academic year persistence.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs the repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

const academicYearColumns = `id, name, is_active, is_ready, start_date, end_date, created_at, updated_at`

// Create inserts a new academic year. Years are created inactive and not
// ready; flags are flipped through SetReady or the transition engine.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	year.CreatedAt = now
	year.UpdatedAt = now
	const query = `INSERT INTO academic_years (id, name, is_active, is_ready, start_date, end_date, created_at, updated_at)
        VALUES (:id, :name, :is_active, :is_ready, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// List returns all academic years newest first.
func (r *AcademicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years ORDER BY name DESC`, academicYearColumns)
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// FindByID returns one academic year.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE id = $1 LIMIT 1`, academicYearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find academic year: %w", err)
	}
	return &year, nil
}

// ListActive returns every year flagged active. The transition engine treats
// any count other than one as data corruption, so all rows are surfaced.
func (r *AcademicYearRepository) ListActive(ctx context.Context) ([]models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE is_active = TRUE ORDER BY name`, academicYearColumns)
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list active academic years: %w", err)
	}
	return years, nil
}

// ListReady returns every year flagged ready.
func (r *AcademicYearRepository) ListReady(ctx context.Context) ([]models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE is_ready = TRUE ORDER BY name`, academicYearColumns)
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list ready academic years: %w", err)
	}
	return years, nil
}

// SetReady marks one year as ready and clears the flag everywhere else, in a
// single transaction so at most one ready flag exists at any moment.
func (r *AcademicYearRepository) SetReady(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set ready: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_ready = FALSE, updated_at = $1 WHERE is_ready = TRUE AND id <> $2`, now, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear ready flags: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_ready = TRUE, updated_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set ready flag: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set ready: %w", err)
	}
	return nil
}

// SetActive marks one year active and clears both flags everywhere else.
// Used for bootstrap; routine flips happen inside the transition engine.
func (r *AcademicYearRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, now, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear active flags: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = TRUE, is_ready = FALSE, updated_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set active flag: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set active: %w", err)
	}
	return nil
}

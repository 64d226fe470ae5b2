package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// GradeBandRepository reads the configured letter grade bands.
type GradeBandRepository struct {
	db *sqlx.DB
}

// NewGradeBandRepository constructs the repository.
func NewGradeBandRepository(db *sqlx.DB) *GradeBandRepository {
	return &GradeBandRepository{db: db}
}

// ListOrdered returns bands by descending minimum score, the order the
// resolver walks them in.
func (r *GradeBandRepository) ListOrdered(ctx context.Context) ([]models.GradeBand, error) {
	const query = `SELECT id, letter, min_score, max_score FROM grade_bands ORDER BY min_score DESC`
	var bands []models.GradeBand
	if err := r.db.SelectContext(ctx, &bands, query); err != nil {
		return nil, fmt.Errorf("list grade bands: %w", err)
	}
	return bands, nil
}

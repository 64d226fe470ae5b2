package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// AssessmentCategoryRepository reads the weighted category configuration.
type AssessmentCategoryRepository struct {
	db *sqlx.DB
}

// NewAssessmentCategoryRepository constructs the repository.
func NewAssessmentCategoryRepository(db *sqlx.DB) *AssessmentCategoryRepository {
	return &AssessmentCategoryRepository{db: db}
}

// List returns all categories.
func (r *AssessmentCategoryRepository) List(ctx context.Context) ([]models.AssessmentCategory, error) {
	const query = `SELECT id, name, system_role, weight_percentage FROM assessment_categories ORDER BY system_role`
	var categories []models.AssessmentCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list assessment categories: %w", err)
	}
	return categories, nil
}

// MapByRole returns categories keyed by system role. The aggregator requires
// both INTERNAL and EXTERNAL to be present and treats absence as a
// configuration fault, not a zero weight.
func (r *AssessmentCategoryRepository) MapByRole(ctx context.Context) (map[models.CategoryRole]models.AssessmentCategory, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	byRole := make(map[models.CategoryRole]models.AssessmentCategory, len(categories))
	for _, category := range categories {
		byRole[category.SystemRole] = category
	}
	return byRole, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eti-mis/academics-api/internal/models"
)

// SystemLogRepository persists the administrative audit trail.
type SystemLogRepository struct {
	db *sqlx.DB
}

// NewSystemLogRepository constructs the repository.
func NewSystemLogRepository(db *sqlx.DB) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

// Create appends one audit entry.
func (r *SystemLogRepository) Create(ctx context.Context, entry *models.SystemLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO system_logs (id, user_id, category, message, meta, created_at)
        VALUES (:id, :user_id, :category, :message, :meta, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create system log: %w", err)
	}
	return nil
}

// List returns audit entries matching the filter, newest first.
func (r *SystemLogRepository) List(ctx context.Context, filter models.SystemLogFilter) ([]models.SystemLog, error) {
	base := `SELECT id, user_id, category, message, meta, created_at FROM system_logs`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY created_at DESC"

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	base += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var entries []models.SystemLog
	if err := r.db.SelectContext(ctx, &entries, base, args...); err != nil {
		return nil, fmt.Errorf("list system logs: %w", err)
	}
	return entries, nil
}

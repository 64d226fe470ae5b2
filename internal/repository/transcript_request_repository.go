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

// TranscriptRequestRepository stores transcript snapshots moving through the
// approval workflow.
type TranscriptRequestRepository struct {
	db *sqlx.DB
}

// NewTranscriptRequestRepository constructs the repository.
func NewTranscriptRequestRepository(db *sqlx.DB) *TranscriptRequestRepository {
	return &TranscriptRequestRepository{db: db}
}

const transcriptRequestColumns = `id, student_id, snapshot, status, requested_by, reviewed_by, requested_at, reviewed_at`

// Create inserts a pending request with its point-in-time snapshot.
func (r *TranscriptRequestRepository) Create(ctx context.Context, request *models.TranscriptRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.TranscriptRequestPending
	}
	request.RequestedAt = time.Now().UTC()
	const query = `INSERT INTO transcript_requests (id, student_id, snapshot, status, requested_by, requested_at)
        VALUES (:id, :student_id, :snapshot, :status, :requested_by, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create transcript request: %w", err)
	}
	return nil
}

// FindByID returns one request.
func (r *TranscriptRequestRepository) FindByID(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcript_requests WHERE id = $1 LIMIT 1`, transcriptRequestColumns)
	var request models.TranscriptRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find transcript request: %w", err)
	}
	return &request, nil
}

// ListByStatus returns requests in one workflow state, oldest first.
func (r *TranscriptRequestRepository) ListByStatus(ctx context.Context, status models.TranscriptRequestStatus) ([]models.TranscriptRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcript_requests WHERE status = $1 ORDER BY requested_at`, transcriptRequestColumns)
	var requests []models.TranscriptRequest
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list transcript requests: %w", err)
	}
	return requests, nil
}

// Review moves a pending request to APPROVED or REJECTED. Only pending
// requests can be reviewed; reviewing twice is a no-op reported as not found.
func (r *TranscriptRequestRepository) Review(ctx context.Context, id string, status models.TranscriptRequestStatus, reviewedBy string) error {
	const query = `UPDATE transcript_requests
        SET status = $2, reviewed_by = $3, reviewed_at = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, status, reviewedBy, time.Now().UTC(), models.TranscriptRequestPending)
	if err != nil {
		return fmt.Errorf("review transcript request: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

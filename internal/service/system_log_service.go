package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type systemLogRepo interface {
	Create(ctx context.Context, entry *models.SystemLog) error
	List(ctx context.Context, filter models.SystemLogFilter) ([]models.SystemLog, error)
}

// SystemLogService exposes the audit trail to administrators.
type SystemLogService struct {
	logs   systemLogRepo
	logger *zap.Logger
}

// NewSystemLogService constructs SystemLogService.
func NewSystemLogService(logs systemLogRepo, logger *zap.Logger) *SystemLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemLogService{logs: logs, logger: logger}
}

// List returns audit entries matching the filter, newest first.
func (s *SystemLogService) List(ctx context.Context, filter models.SystemLogFilter) ([]models.SystemLog, error) {
	entries, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list system logs")
	}
	return entries, nil
}

package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

const systemLockKey = "system:lock"

// LockState reports whether the administrative freeze is engaged.
type LockState struct {
	Locked   bool   `json:"locked"`
	LockedBy string `json:"locked_by,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SystemLockService is a redis-backed administrative freeze. While engaged,
// student-facing writes are rejected; the year transition requires it so the
// data the validation pass reads cannot shift before the apply commits.
type SystemLockService struct {
	client *redis.Client
	audit  systemLogWriter
	logger *zap.Logger
}

// NewSystemLockService constructs SystemLockService. audit may be nil.
func NewSystemLockService(client *redis.Client, audit systemLogWriter, logger *zap.Logger) *SystemLockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemLockService{client: client, audit: audit, logger: logger}
}

// State returns the current lock state. A missing key means unlocked.
func (s *SystemLockService) State(ctx context.Context) (*LockState, error) {
	if s.client == nil {
		return &LockState{}, nil
	}
	raw, err := s.client.Get(ctx, systemLockKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &LockState{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read system lock")
	}
	var state LockState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt system lock state")
	}
	return &state, nil
}

// Engage turns the freeze on. The lock has no TTL; it stays until released.
func (s *SystemLockService) Engage(ctx context.Context, lockedBy, reason string) error {
	if s.client == nil {
		return appErrors.Clone(appErrors.ErrInternal, "system lock requires redis")
	}
	state := LockState{Locked: true, LockedBy: lockedBy, Reason: reason}
	payload, _ := json.Marshal(state)
	if err := s.client.Set(ctx, systemLockKey, payload, 0).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to engage system lock")
	}
	s.writeAudit(ctx, lockedBy, "system lock engaged: "+reason)
	s.logger.Info("system lock engaged", zap.String("locked_by", lockedBy))
	return nil
}

// Release turns the freeze off.
func (s *SystemLockService) Release(ctx context.Context, releasedBy string) error {
	if s.client == nil {
		return appErrors.Clone(appErrors.ErrInternal, "system lock requires redis")
	}
	if err := s.client.Del(ctx, systemLockKey).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release system lock")
	}
	s.writeAudit(ctx, releasedBy, "system lock released")
	s.logger.Info("system lock released", zap.String("released_by", releasedBy))
	return nil
}

// RequireLocked errors unless the freeze is engaged. The transition endpoint
// calls this before running when configured to do so.
func (s *SystemLockService) RequireLocked(ctx context.Context) error {
	state, err := s.State(ctx)
	if err != nil {
		return err
	}
	if !state.Locked {
		return appErrors.Clone(appErrors.ErrSystemUnlocked, "engage the system lock before running a transition")
	}
	return nil
}

func (s *SystemLockService) writeAudit(ctx context.Context, userID, message string) {
	if s.audit == nil {
		return
	}
	entry := &models.SystemLog{Category: models.LogCategorySystem, Message: message}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("system lock audit write failed", zap.Error(err))
	}
}

package models

import "time"

// SystemLogCategory classifies audit trail entries.
const (
	LogCategorySystem       = "SYSTEM"
	LogCategoryAuth         = "AUTH"
	LogCategoryRegistration = "REGISTRATION"
	LogCategoryAssessment   = "ASSESSMENT"
	LogCategoryTransition   = "TRANSITION"
	LogCategoryFinance      = "FINANCE"
)

// SystemLog is a persisted audit trail row. High-stakes operations (year
// transitions, payment verification) write one so admins can reconstruct
// what happened and who triggered it.
type SystemLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Category  string    `db:"category" json:"category"`
	Message   string    `db:"message" json:"message"`
	Meta      []byte    `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SystemLogFilter scopes audit log listings.
type SystemLogFilter struct {
	Category string
	UserID   string
	Page     int
	PageSize int
}

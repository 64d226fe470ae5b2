package models

import "time"

// ExportFormat enumerates supported transcript export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous transcript export. Jobs live in memory;
// the rendered file on disk and its signed download token outlive a restart,
// the job record does not.
type ExportJob struct {
	ID            string       `json:"id"`
	StudentID     string       `json:"student_id"`
	Format        ExportFormat `json:"format"`
	Status        ExportStatus `json:"status"`
	Filename      string       `json:"filename,omitempty"`
	DownloadToken string       `json:"download_token,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	RequestedBy   string       `json:"requested_by"`
	CreatedAt     time.Time    `json:"created_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	ErrorMessage  *string      `json:"error_message,omitempty"`
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/jobs"
)

type exportTranscriptBuilder interface {
	Build(ctx context.Context, studentID string) (*models.Transcript, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transcriptRenderer interface {
	TranscriptCSV(transcript *models.Transcript, student *models.Student) ([]byte, string, error)
	TranscriptPDF(transcript *models.Transcript, student *models.Student) ([]byte, string, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ExportJobService runs transcript exports on a background worker pool and
// hands out signed download tokens for the rendered files. Job records are
// held in memory only.
type ExportJobService struct {
	transcripts exportTranscriptBuilder
	students    exportStudentReader
	renderer    transcriptRenderer
	store       exportFileStore
	signer      downloadSigner
	queue       *jobs.Queue
	logger      *zap.Logger

	mu      sync.RWMutex
	records map[string]*models.ExportJob
}

// NewExportJobService constructs ExportJobService with its own worker queue.
// Start must be called before Enqueue.
func NewExportJobService(transcripts exportTranscriptBuilder, students exportStudentReader, renderer transcriptRenderer, store exportFileStore, signer downloadSigner, workers int, logger *zap.Logger) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExportJobService{
		transcripts: transcripts,
		students:    students,
		renderer:    renderer,
		store:       store,
		signer:      signer,
		logger:      logger,
		records:     make(map[string]*models.ExportJob),
	}
	svc.queue = jobs.NewQueue("transcript-exports", svc.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return svc
}

// Start launches the worker pool.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ExportJobService) Stop() {
	s.queue.Stop()
}

// Enqueue validates the request and queues a transcript export.
func (s *ExportJobService) Enqueue(ctx context.Context, studentID string, format models.ExportFormat, requestedBy string) (*models.ExportJob, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Format:      format,
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.records[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "transcript-export"}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return snapshotJob(job), nil
}

// Get returns one export job record.
func (s *ExportJobService) Get(id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.records[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return snapshotJob(job), nil
}

// OpenDownload validates a signed token and opens the referenced file.
func (s *ExportJobService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, relPath, nil
}

// process renders one queued export. Runs on queue workers; a returned error
// triggers the queue's bounded retry.
func (s *ExportJobService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.transition(queued.ID, models.ExportStatusProcessing)
	if err != nil {
		return err
	}

	transcript, err := s.transcripts.Build(ctx, job.StudentID)
	if err != nil {
		s.fail(job.ID, err)
		return fmt.Errorf("build transcript for export %s: %w", job.ID, err)
	}
	student, err := s.students.FindByID(ctx, job.StudentID)
	if err != nil {
		s.fail(job.ID, err)
		return fmt.Errorf("load student for export %s: %w", job.ID, err)
	}

	var payload []byte
	var filename string
	switch job.Format {
	case models.ExportFormatPDF:
		payload, filename, err = s.renderer.TranscriptPDF(transcript, student)
	default:
		payload, filename, err = s.renderer.TranscriptCSV(transcript, student)
	}
	if err != nil {
		s.fail(job.ID, err)
		return fmt.Errorf("render export %s: %w", job.ID, err)
	}

	stored, err := s.store.Save(filename, payload)
	if err != nil {
		s.fail(job.ID, err)
		return fmt.Errorf("store export %s: %w", job.ID, err)
	}
	token, expiresAt, err := s.signer.Generate(job.ID, stored)
	if err != nil {
		s.fail(job.ID, err)
		return fmt.Errorf("sign export %s: %w", job.ID, err)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if record, ok := s.records[job.ID]; ok {
		record.Status = models.ExportStatusFinished
		record.Filename = stored
		record.DownloadToken = token
		record.ExpiresAt = &expiresAt
		record.FinishedAt = &now
		record.ErrorMessage = nil
	}
	s.mu.Unlock()

	s.logger.Info("transcript export finished",
		zap.String("job_id", job.ID),
		zap.String("student_id", job.StudentID),
		zap.String("file", stored))
	return nil
}

func (s *ExportJobService) transition(id string, status models.ExportStatus) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("export job %s vanished", id)
	}
	job.Status = status
	return snapshotJob(job), nil
}

func (s *ExportJobService) fail(id string, cause error) {
	now := time.Now().UTC()
	message := cause.Error()
	s.mu.Lock()
	if job, ok := s.records[id]; ok {
		job.Status = models.ExportStatusFailed
		job.FinishedAt = &now
		job.ErrorMessage = &message
	}
	s.mu.Unlock()
}

func snapshotJob(job *models.ExportJob) *models.ExportJob {
	clone := *job
	return &clone
}

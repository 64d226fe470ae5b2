package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type transcriptRowReader interface {
	TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type transcriptStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transcriptRequestRepo interface {
	Create(ctx context.Context, request *models.TranscriptRequest) error
	FindByID(ctx context.Context, id string) (*models.TranscriptRequest, error)
	ListByStatus(ctx context.Context, status models.TranscriptRequestStatus) ([]models.TranscriptRequest, error)
	Review(ctx context.Context, id string, status models.TranscriptRequestStatus, reviewedBy string) error
}

type transcriptCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// TranscriptService builds the nested level/semester/course transcript from
// final course records and runs the snapshot approval workflow.
type TranscriptService struct {
	rows        transcriptRowReader
	students    transcriptStudentReader
	requests    transcriptRequestRepo
	cache       transcriptCache
	cacheTTL    time.Duration
	gpaDecimals int
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService. cache may be nil to
// disable caching entirely.
func NewTranscriptService(rows transcriptRowReader, students transcriptStudentReader, requests transcriptRequestRepo, cache transcriptCache, cacheTTL time.Duration, gpaDecimals int, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	if gpaDecimals <= 0 {
		gpaDecimals = 2
	}
	return &TranscriptService{
		rows:        rows,
		students:    students,
		requests:    requests,
		cache:       cache,
		cacheTTL:    cacheTTL,
		gpaDecimals: gpaDecimals,
		logger:      logger,
	}
}

func transcriptCacheKey(studentID string) string {
	return "transcript:" + studentID
}

// Build assembles a student's transcript, serving from cache when possible.
func (s *TranscriptService) Build(ctx context.Context, studentID string) (*models.Transcript, error) {
	transcript, _, err := s.BuildWithCacheStatus(ctx, studentID)
	return transcript, err
}

// BuildWithCacheStatus is Build plus whether the transcript came from cache,
// for response metadata.
func (s *TranscriptService) BuildWithCacheStatus(ctx context.Context, studentID string) (*models.Transcript, bool, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if s.cache != nil {
		var cached models.Transcript
		hit, err := s.cache.Get(ctx, transcriptCacheKey(studentID), &cached)
		if err != nil {
			s.logger.Warn("transcript cache read failed", zap.String("student_id", studentID), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	rows, err := s.rows.TranscriptRows(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript rows")
	}
	transcript := s.assemble(studentID, rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, transcriptCacheKey(studentID), transcript, s.cacheTTL); err != nil {
			s.logger.Warn("transcript cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return transcript, false, nil
}

// InvalidateStudent drops the student's cached transcript. Called after every
// final record recompute so reads never serve stale grades past the TTL.
func (s *TranscriptService) InvalidateStudent(ctx context.Context, studentID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, transcriptCacheKey(studentID))
}

// assemble folds ordered rows into the level -> semester -> course structure
// and computes semester GPAs plus the cumulative CGPA. Rows arrive ordered by
// level then semester start date, so grouping is a single pass.
func (s *TranscriptService) assemble(studentID string, rows []models.TranscriptRow) *models.Transcript {
	transcript := &models.Transcript{
		StudentID:   studentID,
		GeneratedAt: time.Now().UTC(),
	}

	var totalPoints, totalCredits float64
	var level *models.TranscriptLevel
	var semester *models.TranscriptSemester
	var semPoints, semCredits float64

	closeSemester := func() {
		if semester == nil {
			return
		}
		if semCredits > 0 {
			gpa := roundHalfUp(semPoints/semCredits, s.gpaDecimals)
			semester.GPA = &gpa
		}
		level.Semesters = append(level.Semesters, *semester)
		semester = nil
		semPoints, semCredits = 0, 0
	}
	closeLevel := func() {
		if level == nil {
			return
		}
		closeSemester()
		transcript.Levels = append(transcript.Levels, *level)
		level = nil
	}

	for _, row := range rows {
		if level == nil || level.LevelID != row.LevelID {
			closeLevel()
			level = &models.TranscriptLevel{LevelID: row.LevelID, LevelName: row.LevelName}
		}
		if semester == nil || semester.SemesterID != row.SemesterID {
			closeSemester()
			semester = &models.TranscriptSemester{SemesterID: row.SemesterID, SemesterName: row.SemesterName}
		}
		point := GradePoint(row.Grade)
		semester.Courses = append(semester.Courses, models.TranscriptCourse{
			Code:        row.CourseCode,
			Title:       row.CourseTitle,
			CreditHours: row.CreditHours,
			Score:       row.Score,
			Grade:       row.Grade,
			GradePoint:  point,
		})
		credits := float64(row.CreditHours)
		semPoints += point * credits
		semCredits += credits
		totalPoints += point * credits
		totalCredits += credits
	}
	closeLevel()

	if totalCredits > 0 {
		cgpa := roundHalfUp(totalPoints/totalCredits, s.gpaDecimals)
		transcript.CGPA = &cgpa
	}
	return transcript
}

// RequestSnapshot freezes the student's current transcript into a pending
// approval request. The snapshot is what gets approved, not the live data;
// grades recorded after the request do not alter it.
func (s *TranscriptService) RequestSnapshot(ctx context.Context, studentID, requestedBy string) (*models.TranscriptRequest, error) {
	transcript, err := s.Build(ctx, studentID)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(transcript)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode snapshot")
	}
	request := &models.TranscriptRequest{
		StudentID: studentID,
		Snapshot:  snapshot,
	}
	if requestedBy != "" {
		request.RequestedBy = &requestedBy
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transcript request")
	}
	return request, nil
}

// ListRequests returns snapshot requests in one workflow state.
func (s *TranscriptService) ListRequests(ctx context.Context, status models.TranscriptRequestStatus) ([]models.TranscriptRequest, error) {
	requests, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcript requests")
	}
	return requests, nil
}

// ReviewRequest approves or rejects a pending snapshot request.
func (s *TranscriptService) ReviewRequest(ctx context.Context, id string, approve bool, reviewedBy string) error {
	status := models.TranscriptRequestRejected
	if approve {
		status = models.TranscriptRequestApproved
	}
	if err := s.requests.Review(ctx, id, status, reviewedBy); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "transcript request is not pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review transcript request")
	}
	return nil
}

// SnapshotTranscript decodes the frozen transcript stored on a request.
func (s *TranscriptService) SnapshotTranscript(ctx context.Context, id string) (*models.Transcript, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript request")
	}
	var transcript models.Transcript
	if err := json.Unmarshal(request.Snapshot, &transcript); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("corrupt snapshot on request %s", id))
	}
	return &transcript, nil
}

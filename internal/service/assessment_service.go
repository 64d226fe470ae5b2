package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type assessmentTaskRepo interface {
	CreateWithScores(ctx context.Context, task *models.AssessmentTask, studentIDs []string) error
	FindByID(ctx context.Context, id string) (*models.AssessmentTask, error)
	ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.AssessmentTask, error)
	ListScoresByTask(ctx context.Context, taskID string) ([]models.AssessmentTaskScore, error)
	UpdateMarks(ctx context.Context, taskID, studentID string, marks float64, gradedBy string) error
	ListGraded(ctx context.Context, studentID, courseID, semesterID string) ([]models.GradedScore, error)
}

type assessmentFinalRepo interface {
	Upsert(ctx context.Context, assessment *models.Assessment) error
	Find(ctx context.Context, studentID, courseID, semesterID string) (*models.Assessment, error)
}

type categoryReader interface {
	MapByRole(ctx context.Context) (map[models.CategoryRole]models.AssessmentCategory, error)
}

type gradeBandReader interface {
	ListOrdered(ctx context.Context) ([]models.GradeBand, error)
}

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.ProgramCourse, error)
}

type registeredStudentLister interface {
	StudentIDsByCourseAndSemester(ctx context.Context, programCourseID, semesterID string) ([]string, error)
}

type transcriptCacheInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string) error
}

// CreateTaskRequest creates a gradable task for a course offering.
type CreateTaskRequest struct {
	CourseID   string  `json:"course_id" validate:"required"`
	SemesterID string  `json:"semester_id" validate:"required"`
	CategoryID string  `json:"category_id" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	TaskType   string  `json:"task_type" validate:"required"`
	TotalMarks float64 `json:"total_marks" validate:"required,gt=0"`
	CreatedBy  string  `json:"-"`
}

// SaveScoreRequest grades one student on one task.
type SaveScoreRequest struct {
	TaskID    string  `json:"task_id" validate:"required"`
	StudentID string  `json:"student_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
	GradedBy  string  `json:"-"`
}

// AssessmentService owns task provisioning, score entry and the recompute of
// final course records from graded scores.
type AssessmentService struct {
	tasks         assessmentTaskRepo
	finals        assessmentFinalRepo
	categories    categoryReader
	bands         gradeBandReader
	offerings     offeringReader
	registrations registeredStudentLister
	cache         transcriptCacheInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
	scoreDecimals int
}

// NewAssessmentService constructs AssessmentService. cache may be nil when
// transcript caching is disabled.
func NewAssessmentService(tasks assessmentTaskRepo, finals assessmentFinalRepo, categories categoryReader, bands gradeBandReader, offerings offeringReader, registrations registeredStudentLister, cache transcriptCacheInvalidator, scoreDecimals int, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scoreDecimals <= 0 {
		scoreDecimals = 1
	}
	return &AssessmentService{
		tasks:         tasks,
		finals:        finals,
		categories:    categories,
		bands:         bands,
		offerings:     offerings,
		registrations: registrations,
		cache:         cache,
		validator:     validate,
		logger:        logger,
		scoreDecimals: scoreDecimals,
	}
}

// CreateTask creates a task and provisions one ungraded score row for every
// student registered on the offering in that semester, atomically. The
// grading sheet is therefore complete from the start; no student can be
// silently missing a row.
func (s *AssessmentService) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.AssessmentTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	offering, err := s.offerings.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course offering")
	}
	studentIDs, err := s.registrations.StudentIDsByCourseAndSemester(ctx, offering.ID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registered students")
	}

	task := &models.AssessmentTask{
		CourseID:   req.CourseID,
		SemesterID: req.SemesterID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
		TaskType:   req.TaskType,
		TotalMarks: req.TotalMarks,
	}
	if req.CreatedBy != "" {
		task.CreatedBy = &req.CreatedBy
	}
	if err := s.tasks.CreateWithScores(ctx, task, studentIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.logger.Info("assessment task created",
		zap.String("task_id", task.ID),
		zap.String("course_id", task.CourseID),
		zap.Int("score_rows", len(studentIDs)))
	return task, nil
}

// ListTasks returns tasks for an offering in a semester.
func (s *AssessmentService) ListTasks(ctx context.Context, courseID, semesterID string) ([]models.AssessmentTask, error) {
	tasks, err := s.tasks.ListByCourseAndSemester(ctx, courseID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// ListScores returns the grading sheet for one task.
func (s *AssessmentService) ListScores(ctx context.Context, taskID string) ([]models.AssessmentTaskScore, error) {
	scores, err := s.tasks.ListScoresByTask(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task scores")
	}
	return scores, nil
}

// SaveScore records marks for one student on one task and recomputes the
// student's final record for the whole course. The recompute runs on every
// save; the final record is never allowed to drift from its inputs.
func (s *AssessmentService) SaveScore(ctx context.Context, req SaveScoreRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	task, err := s.tasks.FindByID(ctx, req.TaskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assessment task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if req.Marks > task.TotalMarks {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("marks %.1f exceed task total %.1f", req.Marks, task.TotalMarks))
	}
	if err := s.tasks.UpdateMarks(ctx, req.TaskID, req.StudentID, req.Marks, req.GradedBy); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student has no score row for this task")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	return s.Recalculate(ctx, req.StudentID, task.CourseID, task.SemesterID, req.GradedBy)
}

// Recalculate recomputes the final course record for one
// (student, course, semester) key from every graded score. With no graded
// scores it leaves everything untouched. With a missing INTERNAL or EXTERNAL
// category it fails loudly instead of writing a partial score.
func (s *AssessmentService) Recalculate(ctx context.Context, studentID, courseID, semesterID, recordedBy string) error {
	scores, err := s.tasks.ListGraded(ctx, studentID, courseID, semesterID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded scores")
	}
	if len(scores) == 0 {
		return nil
	}

	byRole, err := s.categories.MapByRole(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load categories")
	}
	internal, ok := byRole[models.CategoryInternal]
	if !ok {
		return appErrors.Clone(appErrors.ErrConfiguration, "INTERNAL assessment category is not configured")
	}
	external, ok := byRole[models.CategoryExternal]
	if !ok {
		return appErrors.Clone(appErrors.ErrConfiguration, "EXTERNAL assessment category is not configured")
	}

	var internalSum, internalMax, externalSum, externalMax float64
	for _, score := range scores {
		switch score.CategoryRole {
		case models.CategoryInternal:
			internalSum += score.MarksObtained
			internalMax += score.TotalMarks
		case models.CategoryExternal:
			externalSum += score.MarksObtained
			externalMax += score.TotalMarks
		}
	}

	var weighted float64
	if internalMax > 0 {
		weighted += (internalSum / internalMax) * internal.WeightPercentage
	}
	if externalMax > 0 {
		weighted += (externalSum / externalMax) * external.WeightPercentage
	}
	if weighted < 0 {
		weighted = 0
	}
	if weighted > 100 {
		weighted = 100
	}
	weighted = roundHalfUp(weighted, s.scoreDecimals)

	bands, err := s.bands.ListOrdered(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade bands")
	}
	letter := ResolveLetter(bands, weighted)

	offering, err := s.offerings.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course offering")
	}

	assessment := &models.Assessment{
		StudentID:  studentID,
		CourseID:   courseID,
		ProgramID:  offering.ProgramID,
		SemesterID: semesterID,
		Score:      weighted,
		Grade:      letter,
	}
	if recordedBy != "" {
		assessment.RecordedBy = &recordedBy
	}
	if err := s.finals.Upsert(ctx, assessment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save final record")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
			s.logger.Warn("transcript cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	s.logger.Debug("final record recomputed",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.Float64("score", weighted),
		zap.String("grade", letter))
	return nil
}

// FinalRecord returns the derived record for one (student, course, semester).
func (s *AssessmentService) FinalRecord(ctx context.Context, studentID, courseID, semesterID string) (*models.Assessment, error) {
	assessment, err := s.finals.Find(ctx, studentID, courseID, semesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no final record for this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final record")
	}
	return assessment, nil
}

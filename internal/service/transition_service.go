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

type transitionYearReader interface {
	ListActive(ctx context.Context) ([]models.AcademicYear, error)
	ListReady(ctx context.Context) ([]models.AcademicYear, error)
}

type transitionProgramReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListLevels(ctx context.Context, programID string) ([]models.ProgramLevel, error)
	ListCourses(ctx context.Context, programID string) ([]models.Course, error)
}

type transitionStudentReader interface {
	ListLevelsByProgram(ctx context.Context, programID string) ([]models.StudentLevel, error)
}

type transitionSemesterReader interface {
	ListActiveByLevelAndYear(ctx context.Context, levelID, academicYearID string) ([]models.Semester, error)
}

type transitionApplier interface {
	Apply(ctx context.Context, plan *models.TransitionPlan) (*models.TransitionOutcome, error)
}

type systemLogWriter interface {
	Create(ctx context.Context, entry *models.SystemLog) error
}

// TransitionService runs the academic year transition for a program: a
// validation pass that assembles a full mutation plan, then a single atomic
// apply. Any validation failure stops the run before the first write.
type TransitionService struct {
	years     transitionYearReader
	programs  transitionProgramReader
	students  transitionStudentReader
	semesters transitionSemesterReader
	applier   transitionApplier
	audit     systemLogWriter
	logger    *zap.Logger
}

// NewTransitionService constructs TransitionService. audit may be nil.
func NewTransitionService(years transitionYearReader, programs transitionProgramReader, students transitionStudentReader, semesters transitionSemesterReader, applier transitionApplier, audit systemLogWriter, logger *zap.Logger) *TransitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionService{
		years:     years,
		programs:  programs,
		students:  students,
		semesters: semesters,
		applier:   applier,
		audit:     audit,
		logger:    logger,
	}
}

// Run executes the transition for one program. The returned result carries
// the full log trail; Success is false when validation rejected the run, in
// which case nothing was written. A non-nil error means an infrastructure
// failure, not a validation outcome.
func (s *TransitionService) Run(ctx context.Context, programID, triggeredBy string) (*models.TransitionResult, error) {
	result := &models.TransitionResult{Timestamp: time.Now().UTC()}
	logf := func(format string, args ...interface{}) {
		result.Logs = append(result.Logs, fmt.Sprintf(format, args...))
	}

	plan, ok, err := s.buildPlan(ctx, programID, logf)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("transition rejected by validation", zap.String("program_id", programID))
		return result, nil
	}

	outcome, err := s.applier.Apply(ctx, plan)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transition apply failed")
	}

	logf("[STEP] Deactivated %d course offerings", outcome.DeactivatedCount)
	for _, created := range outcome.Created {
		logf("[CREATE] %s %s (%s / %s)", created.Code, created.Title, created.LevelName, created.SemesterName)
	}
	for _, skipped := range outcome.Skipped {
		logf("[SKIP] %s already offered (%s / %s)", skipped.Title, skipped.LevelName, skipped.SemesterName)
	}
	for _, promoted := range outcome.Promoted {
		logf("[PROMOTE] %s -> %s", promoted.FullName, promoted.ToLevel.Name)
	}
	logf("[STEP] Promoted %d students", len(outcome.Promoted))
	logf("[STEP] Academic year %s -> %s", plan.ActiveYear.Name, plan.ReadyYear.Name)

	result.Success = true
	result.CreatedCount = len(outcome.Created)
	result.DeactivatedCount = outcome.DeactivatedCount
	result.PromotedCount = len(outcome.Promoted)

	s.writeAudit(ctx, triggeredBy, plan, result)
	s.logger.Info("transition applied",
		zap.String("program_id", programID),
		zap.Int("created", result.CreatedCount),
		zap.Int("promoted", result.PromotedCount))
	return result, nil
}

// buildPlan runs every validation and assembles the mutation plan. It writes
// its findings through logf and reports ok=false on the first rejection.
func (s *TransitionService) buildPlan(ctx context.Context, programID string, logf func(string, ...interface{})) (*models.TransitionPlan, bool, error) {
	program, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		if err == sql.ErrNoRows {
			logf("[ERROR] Program %s not found", programID)
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	logf("[CHECK] Program: %s", program.Name)

	activeYears, err := s.years.ListActive(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active years")
	}
	if len(activeYears) != 1 {
		logf("[ERROR] Expected exactly one active academic year, found %d", len(activeYears))
		return nil, false, nil
	}
	activeYear := activeYears[0]
	logf("[CHECK] Active year: %s", activeYear.Name)

	readyYears, err := s.years.ListReady(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ready years")
	}
	if len(readyYears) != 1 {
		logf("[ERROR] Expected exactly one ready academic year, found %d", len(readyYears))
		return nil, false, nil
	}
	readyYear := readyYears[0]
	if readyYear.ID == activeYear.ID {
		logf("[ERROR] Academic year %s is flagged both active and ready", activeYear.Name)
		return nil, false, nil
	}
	logf("[CHECK] Ready year: %s", readyYear.Name)

	levels, err := s.programs.ListLevels(ctx, programID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program levels")
	}
	if len(levels) == 0 {
		logf("[ERROR] Program %s has no levels defined", program.Name)
		return nil, false, nil
	}
	logf("[CHECK] Level ladder: %d levels", len(levels))

	byOrder := make(map[int]models.ProgramLevel, len(levels))
	maxOrder := 0
	for _, level := range levels {
		byOrder[level.Order] = level
		if level.Order > maxOrder {
			maxOrder = level.Order
		}
	}

	students, err := s.students.ListLevelsByProgram(ctx, programID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	// Map each populated level order onto its next level. Students on the
	// highest defined level are terminal and stay where they are.
	nextByOrder := make(map[int]models.ProgramLevel)
	seenOrders := make(map[int]bool)
	var promotions []models.StudentPromotion
	for _, student := range students {
		if student.LevelOrder == nil {
			logf("[CHECK] Student %s has no level, skipped", student.FullName)
			continue
		}
		order := *student.LevelOrder
		if !seenOrders[order] {
			seenOrders[order] = true
			if order == maxOrder {
				logf("[CHECK] Level %s is terminal, its students remain", byOrder[order].Name)
			} else {
				next, exists := byOrder[order+1]
				if !exists {
					logf("[ERROR] No level with order %d to promote into", order+1)
					return nil, false, nil
				}
				nextByOrder[order] = next
				logf("[CHECK] Next level for order %d: %s", order, next.Name)
			}
		}
		if next, promotable := nextByOrder[order]; promotable {
			promotions = append(promotions, models.StudentPromotion{
				StudentID: student.StudentID,
				FullName:  student.FullName,
				ToLevel:   next,
			})
		}
	}

	// With nobody to promote, offerings still have to exist for the incoming
	// cohort's second level.
	if len(nextByOrder) == 0 {
		fallback, exists := byOrder[2]
		if !exists {
			logf("[ERROR] No students to promote and no level with order 2 for fallback")
			return nil, false, nil
		}
		nextByOrder[1] = fallback
		logf("[CHECK] No students to promote, falling back to %s", fallback.Name)
	}

	var levelSemesters []models.LevelSemester
	for order := 1; order <= maxOrder; order++ {
		next, ok := nextByOrder[order]
		if !ok {
			continue
		}
		semesters, err := s.semesters.ListActiveByLevelAndYear(ctx, next.ID, readyYear.ID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semesters")
		}
		switch len(semesters) {
		case 0:
			logf("[ERROR] No active semester for %s under %s", next.Name, readyYear.Name)
			return nil, false, nil
		case 1:
			logf("[CHECK] Active semester for %s: %s", next.Name, semesters[0].Name)
			levelSemesters = append(levelSemesters, models.LevelSemester{Level: next, Semester: semesters[0]})
		default:
			logf("[ERROR] Multiple active semesters for %s under %s", next.Name, readyYear.Name)
			return nil, false, nil
		}
	}

	baseCourses, err := s.programs.ListCourses(ctx, programID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base courses")
	}
	logf("[CHECK] Base catalog: %d courses", len(baseCourses))

	return &models.TransitionPlan{
		Program:        *program,
		ActiveYear:     activeYear,
		ReadyYear:      readyYear,
		LevelSemesters: levelSemesters,
		BaseCourses:    baseCourses,
		Promotions:     promotions,
	}, true, nil
}

func (s *TransitionService) writeAudit(ctx context.Context, triggeredBy string, plan *models.TransitionPlan, result *models.TransitionResult) {
	if s.audit == nil {
		return
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"program_id":        plan.Program.ID,
		"from_year":         plan.ActiveYear.Name,
		"to_year":           plan.ReadyYear.Name,
		"created_count":     result.CreatedCount,
		"deactivated_count": result.DeactivatedCount,
		"promoted_count":    result.PromotedCount,
	})
	entry := &models.SystemLog{
		Category: models.LogCategoryTransition,
		Message:  fmt.Sprintf("academic year transition %s -> %s for %s", plan.ActiveYear.Name, plan.ReadyYear.Name, plan.Program.Name),
		Meta:     meta,
	}
	if triggeredBy != "" {
		entry.UserID = &triggeredBy
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("transition audit write failed", zap.Error(err))
	}
}

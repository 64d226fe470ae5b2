package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type mockTaskRepo struct {
	tasks     map[string]*models.AssessmentTask
	scores    map[string]*models.AssessmentTaskScore
	graded    []models.GradedScore
	scoreRows []string
}

func scoreKey(taskID, studentID string) string { return taskID + "|" + studentID }

func (m *mockTaskRepo) CreateWithScores(ctx context.Context, task *models.AssessmentTask, studentIDs []string) error {
	if m.tasks == nil {
		m.tasks = make(map[string]*models.AssessmentTask)
	}
	task.ID = "task-" + task.Title
	m.tasks[task.ID] = task
	m.scoreRows = append(m.scoreRows, studentIDs...)
	return nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*models.AssessmentTask, error) {
	if task, ok := m.tasks[id]; ok {
		return task, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTaskRepo) ListByCourseAndSemester(ctx context.Context, courseID, semesterID string) ([]models.AssessmentTask, error) {
	var list []models.AssessmentTask
	for _, task := range m.tasks {
		if task.CourseID == courseID && task.SemesterID == semesterID {
			list = append(list, *task)
		}
	}
	return list, nil
}

func (m *mockTaskRepo) ListScoresByTask(ctx context.Context, taskID string) ([]models.AssessmentTaskScore, error) {
	var list []models.AssessmentTaskScore
	for _, score := range m.scores {
		if score.TaskID == taskID {
			list = append(list, *score)
		}
	}
	return list, nil
}

func (m *mockTaskRepo) UpdateMarks(ctx context.Context, taskID, studentID string, marks float64, gradedBy string) error {
	score, ok := m.scores[scoreKey(taskID, studentID)]
	if !ok {
		return sql.ErrNoRows
	}
	score.MarksObtained = &marks
	return nil
}

func (m *mockTaskRepo) ListGraded(ctx context.Context, studentID, courseID, semesterID string) ([]models.GradedScore, error) {
	return m.graded, nil
}

type mockFinalRepo struct {
	upserts []models.Assessment
}

func (m *mockFinalRepo) Upsert(ctx context.Context, assessment *models.Assessment) error {
	m.upserts = append(m.upserts, *assessment)
	return nil
}

func (m *mockFinalRepo) Find(ctx context.Context, studentID, courseID, semesterID string) (*models.Assessment, error) {
	for i := range m.upserts {
		a := m.upserts[i]
		if a.StudentID == studentID && a.CourseID == courseID && a.SemesterID == semesterID {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockCategoryReader struct {
	byRole map[models.CategoryRole]models.AssessmentCategory
}

func (m *mockCategoryReader) MapByRole(ctx context.Context) (map[models.CategoryRole]models.AssessmentCategory, error) {
	return m.byRole, nil
}

type mockBandReader struct{}

func (m *mockBandReader) ListOrdered(ctx context.Context) ([]models.GradeBand, error) {
	return standardBands(), nil
}

type mockOfferingReader struct {
	offerings map[string]*models.ProgramCourse
}

func (m *mockOfferingReader) FindByID(ctx context.Context, id string) (*models.ProgramCourse, error) {
	if offering, ok := m.offerings[id]; ok {
		return offering, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegisteredLister struct {
	studentIDs []string
}

func (m *mockRegisteredLister) StudentIDsByCourseAndSemester(ctx context.Context, programCourseID, semesterID string) ([]string, error) {
	return m.studentIDs, nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateStudent(ctx context.Context, studentID string) error {
	m.invalidated = append(m.invalidated, studentID)
	return nil
}

func weightedCategories() map[models.CategoryRole]models.AssessmentCategory {
	return map[models.CategoryRole]models.AssessmentCategory{
		models.CategoryInternal: {ID: "cat-int", Name: "Coursework", SystemRole: models.CategoryInternal, WeightPercentage: 40},
		models.CategoryExternal: {ID: "cat-ext", Name: "Final Exam", SystemRole: models.CategoryExternal, WeightPercentage: 60},
	}
}

func newAssessmentFixture(graded []models.GradedScore) (*AssessmentService, *mockTaskRepo, *mockFinalRepo, *mockInvalidator) {
	tasks := &mockTaskRepo{graded: graded}
	finals := &mockFinalRepo{}
	offerings := &mockOfferingReader{offerings: map[string]*models.ProgramCourse{
		"course-1": {ID: "course-1", ProgramID: "prog-1", LevelID: "lvl-1", SemesterID: "sem-1", Code: "ITC101", IsActive: true},
	}}
	cache := &mockInvalidator{}
	svc := NewAssessmentService(tasks, finals, &mockCategoryReader{byRole: weightedCategories()}, &mockBandReader{}, offerings, &mockRegisteredLister{studentIDs: []string{"stu-1", "stu-2"}}, cache, 1, nil, nil)
	return svc, tasks, finals, cache
}

func TestRecalculateWeightsPartitions(t *testing.T) {
	// Internal: 30/40 = 75% of 40 -> 30. External: 60/100 = 60% of 60 -> 36.
	graded := []models.GradedScore{
		{MarksObtained: 10, TotalMarks: 20, CategoryRole: models.CategoryInternal},
		{MarksObtained: 20, TotalMarks: 20, CategoryRole: models.CategoryInternal},
		{MarksObtained: 60, TotalMarks: 100, CategoryRole: models.CategoryExternal},
	}
	svc, _, finals, cache := newAssessmentFixture(graded)

	err := svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", "lect-1")
	require.NoError(t, err)
	require.Len(t, finals.upserts, 1)
	assert.Equal(t, 66.0, finals.upserts[0].Score)
	assert.Equal(t, "B", finals.upserts[0].Grade)
	assert.Equal(t, "prog-1", finals.upserts[0].ProgramID)
	assert.Equal(t, []string{"stu-1"}, cache.invalidated)
}

func TestRecalculateOnlyInternalGraded(t *testing.T) {
	// Only internal tasks graded: perfect coursework caps at the 40 weight.
	graded := []models.GradedScore{
		{MarksObtained: 20, TotalMarks: 20, CategoryRole: models.CategoryInternal},
	}
	svc, _, finals, _ := newAssessmentFixture(graded)

	err := svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", "")
	require.NoError(t, err)
	require.Len(t, finals.upserts, 1)
	assert.Equal(t, 40.0, finals.upserts[0].Score)
	assert.Equal(t, "D", finals.upserts[0].Grade)
}

func TestRecalculateNoGradedScoresIsNoOp(t *testing.T) {
	svc, _, finals, cache := newAssessmentFixture(nil)

	err := svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", "")
	require.NoError(t, err)
	assert.Empty(t, finals.upserts)
	assert.Empty(t, cache.invalidated)
}

func TestRecalculateMissingCategoryFailsLoudly(t *testing.T) {
	graded := []models.GradedScore{
		{MarksObtained: 10, TotalMarks: 20, CategoryRole: models.CategoryInternal},
	}
	tasks := &mockTaskRepo{graded: graded}
	finals := &mockFinalRepo{}
	categories := &mockCategoryReader{byRole: map[models.CategoryRole]models.AssessmentCategory{
		models.CategoryInternal: {ID: "cat-int", SystemRole: models.CategoryInternal, WeightPercentage: 40},
	}}
	svc := NewAssessmentService(tasks, finals, categories, &mockBandReader{}, &mockOfferingReader{}, &mockRegisteredLister{}, nil, 1, nil, nil)

	err := svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
	assert.Empty(t, finals.upserts)
}

func TestRecalculateClampsOverweightedConfig(t *testing.T) {
	// Weights summing past 100 must cap the final score, never raise it.
	graded := []models.GradedScore{
		{MarksObtained: 20, TotalMarks: 20, CategoryRole: models.CategoryInternal},
		{MarksObtained: 100, TotalMarks: 100, CategoryRole: models.CategoryExternal},
	}
	tasks := &mockTaskRepo{graded: graded}
	finals := &mockFinalRepo{}
	categories := &mockCategoryReader{byRole: map[models.CategoryRole]models.AssessmentCategory{
		models.CategoryInternal: {ID: "cat-int", SystemRole: models.CategoryInternal, WeightPercentage: 60},
		models.CategoryExternal: {ID: "cat-ext", SystemRole: models.CategoryExternal, WeightPercentage: 60},
	}}
	offerings := &mockOfferingReader{offerings: map[string]*models.ProgramCourse{
		"course-1": {ID: "course-1", ProgramID: "prog-1", LevelID: "lvl-1", SemesterID: "sem-1", Code: "ITC101", IsActive: true},
	}}
	svc := NewAssessmentService(tasks, finals, categories, &mockBandReader{}, offerings, &mockRegisteredLister{}, nil, 1, nil, nil)

	err := svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", "")
	require.NoError(t, err)
	require.Len(t, finals.upserts, 1)
	assert.Equal(t, 100.0, finals.upserts[0].Score)
	assert.Equal(t, "A", finals.upserts[0].Grade)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	graded := []models.GradedScore{
		{MarksObtained: 15, TotalMarks: 20, CategoryRole: models.CategoryInternal},
		{MarksObtained: 50, TotalMarks: 100, CategoryRole: models.CategoryExternal},
	}
	svc, _, finals, _ := newAssessmentFixture(graded)

	require.NoError(t, svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", ""))
	require.NoError(t, svc.Recalculate(context.Background(), "stu-1", "course-1", "sem-1", ""))
	require.Len(t, finals.upserts, 2)
	assert.Equal(t, finals.upserts[0].Score, finals.upserts[1].Score)
	assert.Equal(t, finals.upserts[0].Grade, finals.upserts[1].Grade)
}

func TestCreateTaskProvisionsAllRegisteredStudents(t *testing.T) {
	svc, tasks, _, _ := newAssessmentFixture(nil)

	task, err := svc.CreateTask(context.Background(), CreateTaskRequest{
		CourseID:   "course-1",
		SemesterID: "sem-1",
		CategoryID: "cat-int",
		Title:      "Quiz 1",
		TaskType:   "QUIZ",
		TotalMarks: 20,
		CreatedBy:  "lect-1",
	})
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, []string{"stu-1", "stu-2"}, tasks.scoreRows)
}

func TestCreateTaskUnknownCourse(t *testing.T) {
	svc, _, _, _ := newAssessmentFixture(nil)

	_, err := svc.CreateTask(context.Background(), CreateTaskRequest{
		CourseID:   "missing",
		SemesterID: "sem-1",
		CategoryID: "cat-int",
		Title:      "Quiz 1",
		TaskType:   "QUIZ",
		TotalMarks: 20,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveScoreRejectsMarksAboveTotal(t *testing.T) {
	svc, tasks, _, _ := newAssessmentFixture(nil)
	tasks.tasks = map[string]*models.AssessmentTask{
		"task-1": {ID: "task-1", CourseID: "course-1", SemesterID: "sem-1", TotalMarks: 20},
	}

	err := svc.SaveScore(context.Background(), SaveScoreRequest{TaskID: "task-1", StudentID: "stu-1", Marks: 25})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveScoreUnprovisionedStudent(t *testing.T) {
	svc, tasks, _, _ := newAssessmentFixture(nil)
	tasks.tasks = map[string]*models.AssessmentTask{
		"task-1": {ID: "task-1", CourseID: "course-1", SemesterID: "sem-1", TotalMarks: 20},
	}

	err := svc.SaveScore(context.Background(), SaveScoreRequest{TaskID: "task-1", StudentID: "ghost", Marks: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveScoreTriggersRecalculate(t *testing.T) {
	graded := []models.GradedScore{
		{MarksObtained: 10, TotalMarks: 20, CategoryRole: models.CategoryInternal},
		{MarksObtained: 80, TotalMarks: 100, CategoryRole: models.CategoryExternal},
	}
	svc, tasks, finals, _ := newAssessmentFixture(graded)
	marks := 10.0
	tasks.tasks = map[string]*models.AssessmentTask{
		"task-1": {ID: "task-1", CourseID: "course-1", SemesterID: "sem-1", TotalMarks: 20},
	}
	tasks.scores = map[string]*models.AssessmentTaskScore{
		scoreKey("task-1", "stu-1"): {ID: "score-1", TaskID: "task-1", StudentID: "stu-1", MarksObtained: &marks},
	}

	err := svc.SaveScore(context.Background(), SaveScoreRequest{TaskID: "task-1", StudentID: "stu-1", Marks: 10, GradedBy: "lect-1"})
	require.NoError(t, err)
	// 10/20 of 40 -> 20, 80/100 of 60 -> 48.
	require.Len(t, finals.upserts, 1)
	assert.Equal(t, 68.0, finals.upserts[0].Score)
	assert.Equal(t, "B", finals.upserts[0].Grade)
}

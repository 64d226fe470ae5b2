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

type mockProgramRepo struct {
	programs map[string]*models.Program
	levels   map[string][]models.ProgramLevel
	courses  []models.Course
}

func newMockProgramRepo() *mockProgramRepo {
	return &mockProgramRepo{
		programs: make(map[string]*models.Program),
		levels:   make(map[string][]models.ProgramLevel),
	}
}

func (m *mockProgramRepo) CreateWithLevels(ctx context.Context, program *models.Program, levels []models.ProgramLevel) error {
	program.ID = "prog-" + program.Code
	m.programs[program.ID] = program
	m.levels[program.ID] = levels
	return nil
}

func (m *mockProgramRepo) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if program, ok := m.programs[id]; ok {
		return program, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgramRepo) List(ctx context.Context) ([]models.Program, error) {
	var list []models.Program
	for _, program := range m.programs {
		list = append(list, *program)
	}
	return list, nil
}

func (m *mockProgramRepo) ListLevels(ctx context.Context, programID string) ([]models.ProgramLevel, error) {
	return m.levels[programID], nil
}

func (m *mockProgramRepo) CreateCourse(ctx context.Context, course *models.Course) error {
	course.ID = "course-" + course.Code
	m.courses = append(m.courses, *course)
	return nil
}

func (m *mockProgramRepo) ListCourses(ctx context.Context, programID string) ([]models.Course, error) {
	return m.courses, nil
}

func TestLevelsForBachelorClimbInHundreds(t *testing.T) {
	levels := LevelsForProgram(models.AwardBachelor, 4)

	require.Len(t, levels, 4)
	assert.Equal(t, 100, levels[0].Number)
	assert.Equal(t, 400, levels[3].Number)
	assert.Equal(t, "Level 100", levels[0].Name)
	assert.Equal(t, "Level 400", levels[3].Name)
	for i, level := range levels {
		assert.Equal(t, i+1, level.Order)
	}
}

func TestLevelsForDiplomaShareOneNumber(t *testing.T) {
	levels := LevelsForProgram(models.AwardDiploma, 2)

	require.Len(t, levels, 2)
	assert.Equal(t, 200, levels[0].Number)
	assert.Equal(t, 200, levels[1].Number)
	assert.Equal(t, 1, levels[0].Order)
	assert.Equal(t, 2, levels[1].Order)
}

func TestLevelsForOtherAwards(t *testing.T) {
	certificate := LevelsForProgram(models.AwardCertificate, 1)
	require.Len(t, certificate, 1)
	assert.Equal(t, 100, certificate[0].Number)

	masters := LevelsForProgram(models.AwardMasters, 2)
	require.Len(t, masters, 2)
	assert.Equal(t, 500, masters[0].Number)
	assert.Equal(t, 500, masters[1].Number)
}

func TestCreateProgramGeneratesLadder(t *testing.T) {
	repo := newMockProgramRepo()
	svc := NewProgramService(repo, nil, nil)

	program, err := svc.Create(context.Background(), CreateProgramRequest{
		Name:          "Computer Science",
		Code:          "BSC-CS",
		DepartmentID:  "dept-1",
		AwardType:     models.AwardBachelor,
		DurationYears: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, program)
	require.Len(t, repo.levels[program.ID], 3)
	assert.Equal(t, 300, repo.levels[program.ID][2].Number)
}

func TestCreateProgramRejectsUnknownAward(t *testing.T) {
	svc := NewProgramService(newMockProgramRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateProgramRequest{
		Name:          "Night School",
		Code:          "NS",
		DepartmentID:  "dept-1",
		AwardType:     "EVENING",
		DurationYears: 2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddCourseRequiresExistingProgram(t *testing.T) {
	repo := newMockProgramRepo()
	svc := NewProgramService(repo, nil, nil)

	_, err := svc.AddCourse(context.Background(), CreateCourseRequest{
		ProgramID:    "missing",
		DepartmentID: "dept-1",
		Code:         "ITC101",
		Title:        "Introduction to Computing",
		CreditHours:  3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddCourseToProgram(t *testing.T) {
	repo := newMockProgramRepo()
	svc := NewProgramService(repo, nil, nil)
	program, err := svc.Create(context.Background(), CreateProgramRequest{
		Name:          "Computer Science",
		Code:          "BSC-CS",
		DepartmentID:  "dept-1",
		AwardType:     models.AwardBachelor,
		DurationYears: 3,
	})
	require.NoError(t, err)

	course, err := svc.AddCourse(context.Background(), CreateCourseRequest{
		ProgramID:    program.ID,
		DepartmentID: "dept-1",
		Code:         "ITC101",
		Title:        "Introduction to Computing",
		CreditHours:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, program.ID, course.ProgramID)
	require.Len(t, repo.courses, 1)
}

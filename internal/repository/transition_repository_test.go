package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
)

type stubCodes struct {
	random        string
	deterministic string
}

func (s stubCodes) Random(string, int) string                { return s.random }
func (s stubCodes) Deterministic(string, int, string) string { return s.deterministic }

func transitionPlan() *models.TransitionPlan {
	return &models.TransitionPlan{
		Program:    models.Program{ID: "prog-1", Name: "Computer Science"},
		ActiveYear: models.AcademicYear{ID: "year-old", Name: "2025/2026"},
		ReadyYear:  models.AcademicYear{ID: "year-new", Name: "2026/2027"},
		LevelSemesters: []models.LevelSemester{
			{
				Level:    models.ProgramLevel{ID: "lvl-1", Name: "Level 100", Number: 100, Order: 1},
				Semester: models.Semester{ID: "sem-1", Name: "Semester One"},
			},
		},
		BaseCourses: []models.Course{
			{ID: "base-1", Title: "Intro to Computing", CreditHours: 3},
		},
		Promotions: []models.StudentPromotion{
			{StudentID: "stu-1", FullName: "Ama Mensah", ToLevel: models.ProgramLevel{ID: "lvl-2", Name: "Level 200"}},
		},
	}
}

func TestApplyTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db, stubCodes{random: "CSC-101-XYZ"}, 3)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE program_courses SET is_active = FALSE WHERE program_id = $1")).
		WithArgs("prog-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM program_courses WHERE program_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = $1")).
		WithArgs("CSC-101-XYZ").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO program_courses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET level_id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = FALSE WHERE id = $1")).
		WithArgs("year-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = TRUE, is_ready = FALSE WHERE id = $1")).
		WithArgs("year-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), transitionPlan())
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.DeactivatedCount)
	require.Len(t, outcome.Created, 1)
	assert.Equal(t, "CSC-101-XYZ", outcome.Created[0].Code)
	assert.Empty(t, outcome.Skipped)
	require.Len(t, outcome.Promoted, 1)
	assert.Equal(t, "stu-1", outcome.Promoted[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionSkipsExistingOffering(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db, stubCodes{random: "CSC-101-XYZ"}, 3)

	plan := transitionPlan()
	plan.Promotions = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE program_courses SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM program_courses WHERE program_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, outcome.Created)
	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, "Intro to Computing", outcome.Skipped[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionRollsBackOnPromotionFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db, stubCodes{random: "CSC-101-XYZ"}, 3)

	plan := transitionPlan()
	plan.LevelSemesters = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE program_courses SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET level_id = $2")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), plan)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueCodeFallsBackToDeterministic(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTransitionRepository(db, stubCodes{random: "TAKEN", deterministic: "CSC-101-DET"}, 2)

	plan := transitionPlan()
	plan.Promotions = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE program_courses SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM program_courses WHERE program_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// both random attempts collide
	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE code = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO program_courses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Apply(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, outcome.Created, 1)
	assert.Equal(t, "CSC-101-DET", outcome.Created[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

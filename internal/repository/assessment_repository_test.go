package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
)

func TestUpsertAssessment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec("INSERT INTO assessments").WillReturnResult(sqlmock.NewResult(0, 1))

	assessment := &models.Assessment{
		StudentID:  "stu-1",
		CourseID:   "course-1",
		ProgramID:  "prog-1",
		SemesterID: "sem-1",
		Score:      66.0,
		Grade:      "B",
	}
	err := repo.Upsert(context.Background(), assessment)
	require.NoError(t, err)
	assert.NotEmpty(t, assessment.ID)
	assert.False(t, assessment.DateRecorded.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAssessment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "program_id", "semester_id", "score", "grade", "recorded_by", "date_recorded"}).
		AddRow("a1", "stu-1", "course-1", "prog-1", "sem-1", 66.0, "B", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assessments WHERE student_id = $1 AND course_id = $2 AND semester_id = $3 LIMIT 1")).
		WithArgs("stu-1", "course-1", "sem-1").
		WillReturnRows(rows)

	assessment, err := repo.Find(context.Background(), "stu-1", "course-1", "sem-1")
	require.NoError(t, err)
	assert.Equal(t, 66.0, assessment.Score)
	assert.Equal(t, "B", assessment.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	start := time.Now()
	rows := sqlmock.NewRows([]string{"course_id", "course_code", "course_title", "credit_hours", "score", "grade", "semester_id", "semester_name", "semester_start", "level_id", "level_name", "level_order"}).
		AddRow("course-1", "CSC101", "Intro to Computing", 3, 85.0, "A", "sem-1", "Semester One", start, "lvl-1", "Level 100", 1).
		AddRow("course-2", "CSC102", "Discrete Structures", 3, 72.0, "B", "sem-1", "Semester One", start, "lvl-1", "Level 100", 1)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	result, err := repo.TranscriptRows(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "CSC101", result[0].CourseCode)
	assert.Equal(t, 1, result[0].LevelOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
)

func TestEnrollVerified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET is_verified = TRUE, date_paid = $2 WHERE id = $1 AND is_verified = FALSE`)).
		WithArgs("pay-1", paidAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET is_current = FALSE WHERE student_id = $1 AND is_current = TRUE`)).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO enrollments`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu-1", LevelID: "lvl-1", SemesterID: "sem-1"}
	err := repo.EnrollVerified(context.Background(), "pay-1", paidAt, enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.True(t, enrollment.IsCurrent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollVerifiedAlreadyVerified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET is_verified = TRUE, date_paid = $2 WHERE id = $1 AND is_verified = FALSE`)).
		WithArgs("pay-1", paidAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", LevelID: "lvl-1", SemesterID: "sem-1"}
	err := repo.EnrollVerified(context.Background(), "pay-1", paidAt, enrollment)
	assert.Equal(t, sql.ErrNoRows, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollVerifiedRollsBackOnEnrollmentFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET is_verified = TRUE, date_paid = $2 WHERE id = $1 AND is_verified = FALSE`)).
		WithArgs("pay-1", paidAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE enrollments SET is_current = FALSE WHERE student_id = $1 AND is_current = TRUE`)).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO enrollments`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", LevelID: "lvl-1", SemesterID: "sem-1"}
	err := repo.EnrollVerified(context.Background(), "pay-1", paidAt, enrollment)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

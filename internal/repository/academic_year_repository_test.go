package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
)

func TestSetReady(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_ready = FALSE, updated_at = $1 WHERE is_ready = TRUE AND id <> $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_ready = TRUE, updated_at = $1 WHERE id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetReady(context.Background(), "year-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReadyUnknownYear(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE is_ready = TRUE AND id <> $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_ready = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetReady(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveYears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "is_active", "is_ready", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow("year-1", "2025/2026", true, false, now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_years WHERE is_active = TRUE ORDER BY name")).
		WillReturnRows(rows)

	years, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "2025/2026", years[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAcademicYear(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectExec("INSERT INTO academic_years").WillReturnResult(sqlmock.NewResult(0, 1))

	year := &models.AcademicYear{Name: "2026/2027"}
	err := repo.Create(context.Background(), year)
	require.NoError(t, err)
	assert.NotEmpty(t, year.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

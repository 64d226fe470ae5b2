package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments map[string]*models.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]*models.Payment)
	}
	payment.ID = "pay-" + payment.Reference
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if payment, ok := m.payments[id]; ok {
		return payment, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	var list []models.Payment
	for _, payment := range m.payments {
		if payment.StudentID == studentID {
			list = append(list, *payment)
		}
	}
	return list, nil
}

type mockEnrollmentRepo struct {
	payments   *mockPaymentRepo
	current    map[string]*models.Enrollment
	history    []models.Enrollment
	failEnroll error
}

func (m *mockEnrollmentRepo) EnrollVerified(ctx context.Context, paymentID string, paidAt time.Time, enrollment *models.Enrollment) error {
	if m.failEnroll != nil {
		return m.failEnroll
	}
	payment, ok := m.payments.payments[paymentID]
	if !ok || payment.IsVerified {
		return sql.ErrNoRows
	}
	payment.IsVerified = true
	payment.DatePaid = &paidAt
	if m.current == nil {
		m.current = make(map[string]*models.Enrollment)
	}
	enrollment.ID = "enr-" + enrollment.StudentID
	enrollment.IsCurrent = true
	m.current[enrollment.StudentID] = enrollment
	m.history = append(m.history, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) FindCurrent(ctx context.Context, studentID string) (*models.Enrollment, error) {
	if enrollment, ok := m.current[studentID]; ok {
		return enrollment, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, enrollment := range m.history {
		if enrollment.StudentID == studentID {
			list = append(list, enrollment)
		}
	}
	return list, nil
}

type mockEnrollmentStudents struct {
	students map[string]*models.Student
}

func (m *mockEnrollmentStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentSemesters struct {
	semesters map[string]*models.Semester
}

func (m *mockEnrollmentSemesters) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if semester, ok := m.semesters[id]; ok {
		return semester, nil
	}
	return nil, sql.ErrNoRows
}

func enrollmentFixture() (*EnrollmentService, *mockPaymentRepo, *mockEnrollmentRepo, *mockLogWriter) {
	payments := &mockPaymentRepo{payments: make(map[string]*models.Payment)}
	enrollments := &mockEnrollmentRepo{payments: payments}
	students := &mockEnrollmentStudents{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FullName: "Ama Mensah", StudentNo: "ETI/2025/001"},
	}}
	semesters := &mockEnrollmentSemesters{semesters: map[string]*models.Semester{
		"sem-1": {ID: "sem-1", Name: "Semester One", AcademicYearID: "year-1", LevelID: "lvl-1", IsActive: true, RegistrationOpen: true},
	}}
	audit := &mockLogWriter{}
	svc := NewEnrollmentService(payments, enrollments, students, semesters, audit, nil, nil)
	return svc, payments, enrollments, audit
}

func TestRecordPaymentStoresUnverified(t *testing.T) {
	svc, payments, _, _ := enrollmentFixture()

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID:      "stu-1",
		AcademicYearID: "year-1",
		SemesterID:     "sem-1",
		AmountExpected: 1500,
		AmountPaid:     1500,
		Reference:      "MOMO-001",
	})
	require.NoError(t, err)
	assert.False(t, payment.IsVerified)
	assert.Len(t, payments.payments, 1)
}

func TestRecordPaymentUnknownStudent(t *testing.T) {
	svc, _, _, _ := enrollmentFixture()

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID:      "ghost",
		AcademicYearID: "year-1",
		SemesterID:     "sem-1",
		AmountExpected: 1500,
		AmountPaid:     1500,
		Reference:      "MOMO-001",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerifyPaymentEnrollsStudent(t *testing.T) {
	svc, payments, enrollments, audit := enrollmentFixture()
	payments.payments["pay-1"] = &models.Payment{
		ID: "pay-1", StudentID: "stu-1", AcademicYearID: "year-1", SemesterID: "sem-1",
		AmountExpected: 1500, AmountPaid: 1500, Reference: "MOMO-001",
	}

	enrollment, err := svc.VerifyPayment(context.Background(), "pay-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", enrollment.StudentID)
	assert.Equal(t, "lvl-1", enrollment.LevelID)
	assert.Equal(t, "sem-1", enrollment.SemesterID)
	assert.True(t, payments.payments["pay-1"].IsVerified)
	require.NotNil(t, enrollments.current["stu-1"])

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.LogCategoryFinance, audit.entries[0].Category)
}

func TestVerifyPaymentRejectsAlreadyVerified(t *testing.T) {
	svc, payments, _, _ := enrollmentFixture()
	payments.payments["pay-1"] = &models.Payment{
		ID: "pay-1", StudentID: "stu-1", SemesterID: "sem-1",
		AmountExpected: 1500, AmountPaid: 1500, IsVerified: true,
	}

	_, err := svc.VerifyPayment(context.Background(), "pay-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestVerifyPaymentRejectsUnderpayment(t *testing.T) {
	svc, payments, enrollments, _ := enrollmentFixture()
	payments.payments["pay-1"] = &models.Payment{
		ID: "pay-1", StudentID: "stu-1", SemesterID: "sem-1",
		AmountExpected: 1500, AmountPaid: 900,
	}

	_, err := svc.VerifyPayment(context.Background(), "pay-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.False(t, payments.payments["pay-1"].IsVerified)
	assert.Empty(t, enrollments.current)
}

func TestVerifyPaymentReplacesCurrentEnrollment(t *testing.T) {
	svc, payments, enrollments, _ := enrollmentFixture()
	payments.payments["pay-1"] = &models.Payment{
		ID: "pay-1", StudentID: "stu-1", SemesterID: "sem-1",
		AmountExpected: 1500, AmountPaid: 1500,
	}
	enrollments.current = map[string]*models.Enrollment{
		"stu-1": {ID: "enr-old", StudentID: "stu-1", SemesterID: "sem-0", IsCurrent: true},
	}

	enrollment, err := svc.VerifyPayment(context.Background(), "pay-1", "")
	require.NoError(t, err)
	assert.Equal(t, "sem-1", enrollments.current["stu-1"].SemesterID)
	assert.Equal(t, enrollment.ID, enrollments.current["stu-1"].ID)
}

func TestVerifyPaymentFailureLeavesPaymentRetryable(t *testing.T) {
	svc, payments, enrollments, _ := enrollmentFixture()
	payments.payments["pay-1"] = &models.Payment{
		ID: "pay-1", StudentID: "stu-1", SemesterID: "sem-1",
		AmountExpected: 1500, AmountPaid: 1500,
	}
	enrollments.failEnroll = errors.New("enrollment insert failed")

	_, err := svc.VerifyPayment(context.Background(), "pay-1", "admin-1")
	require.Error(t, err)
	assert.False(t, payments.payments["pay-1"].IsVerified)
	assert.Empty(t, enrollments.current)

	// Once the fault clears, verifying the same payment succeeds.
	enrollments.failEnroll = nil
	enrollment, err := svc.VerifyPayment(context.Background(), "pay-1", "admin-1")
	require.NoError(t, err)
	assert.True(t, payments.payments["pay-1"].IsVerified)
	assert.Equal(t, "stu-1", enrollment.StudentID)
}

func TestCurrentEnrollmentMissing(t *testing.T) {
	svc, _, _, _ := enrollmentFixture()

	_, err := svc.CurrentEnrollment(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

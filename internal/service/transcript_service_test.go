package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type mockRowReader struct {
	rows []models.TranscriptRow
}

func (m *mockRowReader) TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return m.rows, nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type mockRequestRepo struct {
	requests map[string]*models.TranscriptRequest
	created  []*models.TranscriptRequest
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.TranscriptRequest) error {
	request.ID = "req-1"
	request.Status = models.TranscriptRequestPending
	m.created = append(m.created, request)
	return nil
}

func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	if request, ok := m.requests[id]; ok {
		return request, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) ListByStatus(ctx context.Context, status models.TranscriptRequestStatus) ([]models.TranscriptRequest, error) {
	var list []models.TranscriptRequest
	for _, request := range m.requests {
		if request.Status == status {
			list = append(list, *request)
		}
	}
	return list, nil
}

func (m *mockRequestRepo) Review(ctx context.Context, id string, status models.TranscriptRequestStatus, reviewedBy string) error {
	request, ok := m.requests[id]
	if !ok || request.Status != models.TranscriptRequestPending {
		return sql.ErrNoRows
	}
	request.Status = status
	request.ReviewedBy = &reviewedBy
	return nil
}

type mockTranscriptCache struct {
	store   map[string][]byte
	gets    int
	hits    int
	deletes []string
}

func newMockTranscriptCache() *mockTranscriptCache {
	return &mockTranscriptCache{store: make(map[string][]byte)}
}

func (m *mockTranscriptCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.gets++
	payload, ok := m.store[key]
	if !ok {
		return false, nil
	}
	m.hits++
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockTranscriptCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *mockTranscriptCache) Invalidate(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	delete(m.store, pattern)
	return nil
}

func sampleRows() []models.TranscriptRow {
	return []models.TranscriptRow{
		{CourseID: "c1", CourseCode: "ITC101", CourseTitle: "Introduction to Computing", CreditHours: 3, Score: 85, Grade: "A", SemesterID: "s1", SemesterName: "Semester One", LevelID: "l1", LevelName: "Level 100", LevelOrder: 1},
		{CourseID: "c2", CourseCode: "MTH101", CourseTitle: "Calculus I", CreditHours: 3, Score: 66, Grade: "B", SemesterID: "s1", SemesterName: "Semester One", LevelID: "l1", LevelName: "Level 100", LevelOrder: 1},
		{CourseID: "c3", CourseCode: "ITC102", CourseTitle: "Programming I", CreditHours: 4, Score: 92, Grade: "A", SemesterID: "s2", SemesterName: "Semester Two", LevelID: "l1", LevelName: "Level 100", LevelOrder: 1},
		{CourseID: "c4", CourseCode: "ITC201", CourseTitle: "Data Structures", CreditHours: 3, Score: 52, Grade: "C", SemesterID: "s3", SemesterName: "Semester One", LevelID: "l2", LevelName: "Level 200", LevelOrder: 2},
	}
}

func transcriptFixture(rows []models.TranscriptRow, cache *mockTranscriptCache) (*TranscriptService, *mockRequestRepo) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FullName: "Ama Mensah", StudentNo: "ETI/2025/001"},
	}}
	requests := &mockRequestRepo{requests: make(map[string]*models.TranscriptRequest)}
	var c transcriptCache
	if cache != nil {
		c = cache
	}
	svc := NewTranscriptService(&mockRowReader{rows: rows}, students, requests, c, time.Minute, 2, nil)
	return svc, requests
}

func TestBuildGroupsLevelsAndSemesters(t *testing.T) {
	svc, _ := transcriptFixture(sampleRows(), nil)

	transcript, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, transcript.Levels, 2)

	level100 := transcript.Levels[0]
	assert.Equal(t, "Level 100", level100.LevelName)
	require.Len(t, level100.Semesters, 2)
	assert.Len(t, level100.Semesters[0].Courses, 2)
	assert.Len(t, level100.Semesters[1].Courses, 1)

	// Semester One: (4.0*3 + 3.0*3) / 6 = 3.50.
	require.NotNil(t, level100.Semesters[0].GPA)
	assert.Equal(t, 3.5, *level100.Semesters[0].GPA)
	// Semester Two: 4.0 across 4 credits.
	require.NotNil(t, level100.Semesters[1].GPA)
	assert.Equal(t, 4.0, *level100.Semesters[1].GPA)

	// CGPA: (12 + 9 + 16 + 6) / 13 = 3.31.
	require.NotNil(t, transcript.CGPA)
	assert.Equal(t, 3.31, *transcript.CGPA)
}

func TestBuildNoCreditsLeavesGPANil(t *testing.T) {
	rows := []models.TranscriptRow{
		{CourseID: "c1", CourseCode: "AUD100", CourseTitle: "Orientation", CreditHours: 0, Score: 90, Grade: "A", SemesterID: "s1", SemesterName: "Semester One", LevelID: "l1", LevelName: "Level 100", LevelOrder: 1},
	}
	svc, _ := transcriptFixture(rows, nil)

	transcript, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, transcript.Levels, 1)
	assert.Nil(t, transcript.Levels[0].Semesters[0].GPA)
	assert.Nil(t, transcript.CGPA)
}

func TestBuildEmptyTranscript(t *testing.T) {
	svc, _ := transcriptFixture(nil, nil)

	transcript, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, transcript.Levels)
	assert.Nil(t, transcript.CGPA)
}

func TestBuildUnknownStudent(t *testing.T) {
	svc, _ := transcriptFixture(nil, nil)

	_, err := svc.Build(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBuildServesFromCacheOnSecondRead(t *testing.T) {
	cache := newMockTranscriptCache()
	svc, _ := transcriptFixture(sampleRows(), cache)

	first, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.CGPA, second.CGPA)
}

func TestBuildWithCacheStatusReportsSource(t *testing.T) {
	cache := newMockTranscriptCache()
	svc, _ := transcriptFixture(sampleRows(), cache)

	_, fromCache, err := svc.BuildWithCacheStatus(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, fromCache)

	_, fromCache, err = svc.BuildWithCacheStatus(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, fromCache)
}

func TestInvalidateStudentDropsCachedTranscript(t *testing.T) {
	cache := newMockTranscriptCache()
	svc, _ := transcriptFixture(sampleRows(), cache)

	_, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateStudent(context.Background(), "stu-1"))
	assert.Equal(t, []string{"transcript:stu-1"}, cache.deletes)

	_, err = svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
}

func TestRequestSnapshotFreezesTranscript(t *testing.T) {
	svc, requests := transcriptFixture(sampleRows(), nil)

	request, err := svc.RequestSnapshot(context.Background(), "stu-1", "stu-user-1")
	require.NoError(t, err)
	require.Len(t, requests.created, 1)
	assert.Equal(t, models.TranscriptRequestPending, request.Status)

	var frozen models.Transcript
	require.NoError(t, json.Unmarshal(request.Snapshot, &frozen))
	require.NotNil(t, frozen.CGPA)
	assert.Equal(t, 3.31, *frozen.CGPA)
}

func TestReviewRequestApprovesPending(t *testing.T) {
	svc, requests := transcriptFixture(nil, nil)
	requests.requests["req-1"] = &models.TranscriptRequest{ID: "req-1", StudentID: "stu-1", Status: models.TranscriptRequestPending}

	require.NoError(t, svc.ReviewRequest(context.Background(), "req-1", true, "admin-1"))
	assert.Equal(t, models.TranscriptRequestApproved, requests.requests["req-1"].Status)
}

func TestReviewRequestRejectsNonPending(t *testing.T) {
	svc, requests := transcriptFixture(nil, nil)
	requests.requests["req-1"] = &models.TranscriptRequest{ID: "req-1", StudentID: "stu-1", Status: models.TranscriptRequestApproved}

	err := svc.ReviewRequest(context.Background(), "req-1", false, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestSnapshotTranscriptDecodesFrozenPayload(t *testing.T) {
	svc, requests := transcriptFixture(nil, nil)
	cgpa := 3.5
	payload, err := json.Marshal(models.Transcript{StudentID: "stu-1", CGPA: &cgpa})
	require.NoError(t, err)
	requests.requests["req-1"] = &models.TranscriptRequest{ID: "req-1", StudentID: "stu-1", Snapshot: payload, Status: models.TranscriptRequestApproved}

	transcript, err := svc.SnapshotTranscript(context.Background(), "req-1")
	require.NoError(t, err)
	require.NotNil(t, transcript.CGPA)
	assert.Equal(t, 3.5, *transcript.CGPA)
}

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eti-mis/academics-api/internal/models"
)

type stubStudentOwner struct {
	byUserID map[string]*models.Student
}

func (s *stubStudentOwner) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if student, ok := s.byUserID[userID]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func ownershipRouter(owner studentOwner, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id",
		func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
		},
		StaffOrOwnStudent(owner, models.RoleAdmin, models.RoleDean, models.RoleLecturer),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func TestStaffOrOwnStudentAdmitsStaff(t *testing.T) {
	r := ownershipRouter(&stubStudentOwner{}, &models.JWTClaims{UserID: "user-1", Role: models.RoleDean})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/stu-9", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaffOrOwnStudentResolvesOwnRecord(t *testing.T) {
	// The path id is the student row id, not the user id; access goes through
	// the caller's student record.
	owner := &stubStudentOwner{byUserID: map[string]*models.Student{
		"user-1": {ID: "stu-9", UserID: "user-1"},
	}}
	r := ownershipRouter(owner, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/stu-9", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaffOrOwnStudentRejectsOtherStudent(t *testing.T) {
	owner := &stubStudentOwner{byUserID: map[string]*models.Student{
		"user-1": {ID: "stu-9", UserID: "user-1"},
	}}
	r := ownershipRouter(owner, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/stu-8", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStaffOrOwnStudentRejectsStudentWithoutRecord(t *testing.T) {
	r := ownershipRouter(&stubStudentOwner{}, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/stu-9", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStaffOrOwnStudentRequiresClaims(t *testing.T) {
	r := ownershipRouter(&stubStudentOwner{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/stu-9", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

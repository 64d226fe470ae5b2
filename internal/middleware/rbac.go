package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

type studentOwner interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		allowedRoles[models.UserRole(a)] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// StaffOrOwnStudent admits the listed staff roles unconditionally; a STUDENT
// caller passes only when the :id path parameter names their own student row.
// Student ids are minted independently of user ids, so ownership is resolved
// through the caller's student record rather than by comparing the two.
func StaffOrOwnStudent(students studentOwner, staff ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(staff))
	for _, r := range staff {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		if claims.Role == models.RoleStudent && students != nil {
			student, err := students.FindByUserID(c.Request.Context(), claims.UserID)
			if err == nil && student.ID == c.Param("id") {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

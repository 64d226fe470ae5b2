package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eti-mis/academics-api/internal/service"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
	"github.com/eti-mis/academics-api/pkg/response"
)

// StudentWriteFreeze rejects mutating requests while the administrative
// system lock is engaged. Reads pass through so the data stays inspectable
// during a transition window.
func StudentWriteFreeze(lock *service.SystemLockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lock == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		state, err := lock.State(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if state.Locked {
			response.Error(c, appErrors.Clone(appErrors.ErrSystemLocked, "the system is locked for the academic year transition"))
			c.Abort()
			return
		}
		c.Next()
	}
}

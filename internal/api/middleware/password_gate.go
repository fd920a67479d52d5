package middleware

import (
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/errcode"
)

// RequirePasswordChangeCompleted blocks accounts flagged for a forced password
// change. It reads the flag from the access token, not the database.
func RequirePasswordChangeCompleted() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := IdentityFromContext(c); ok && id.MustChangePassword {
			reject(c, errcode.Forbidden("password change required"))
			return
		}
		c.Next()
	}
}

package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/errcode"
)

// InternalSecret guards operator endpoints with the X-Internal-Secret header.
// An empty secret leaves the endpoint open.
func InternalSecret(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token := strings.TrimSpace(c.GetHeader("X-Internal-Secret"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			envelope.Abort(c, errcode.New(errcode.KindUnauthorized, "unauthorized"))
			return
		}
		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/metrics"
)

const identityKey = "identity"

// TokenVerifier validates a signed token of the given type.
type TokenVerifier interface {
	ValidateToken(token, tokenType string) (*auth.TokenClaims, error)
}

// Authenticate requires a valid bearer access token and stores the decoded identity on the context.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, errcode.New(errcode.KindUnauthorized, "missing bearer token"))
			return
		}

		claims, err := verifier.ValidateToken(token, auth.TokenTypeAccess)
		if err != nil {
			LoggerFromContext(c).Debug("access token rejected", "error", err)
			reject(c, errcode.New(errcode.KindUnauthorized, "invalid or expired token"))
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is one of roles.
func RequireRoles(roles ...database.Role) gin.HandlerFunc {
	allowed := make(map[database.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			reject(c, errcode.New(errcode.KindUnauthorized, "authentication required"))
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			reject(c, errcode.Forbidden("insufficient role"))
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := value.(auth.Identity)
	return id, ok
}

// SetIdentity stores id on the context the way Authenticate does.
func SetIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func reject(c *gin.Context, err *errcode.Error) {
	metrics.GateRejected(err.Kind.String())
	envelope.Abort(c, err)
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/auth/authtest"
	"cmsadmin/internal/database"
)

func newGatedRouter(t *testing.T, svc *auth.AuthService, calls *int, roles ...database.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationID())
	handlers := []gin.HandlerFunc{Authenticate(svc), RequirePasswordChangeCompleted()}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		*calls++
		id, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID})
	})
	router.POST("/things", handlers...)
	return router
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	return body.Error
}

func TestAuthenticate_RejectsMissingAndInvalidTokens(t *testing.T) {
	svc := authtest.NewService(t)
	calls := 0
	router := newGatedRouter(t, svc, &calls)

	w := doRequest(router, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized", errorKind(t, w))

	w = doRequest(router, "garbage")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: 1, Role: database.RoleAdmin})
	require.NoError(t, err)
	w = doRequest(router, pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Zero(t, calls)
}

func TestAuthenticate_PassesIdentity(t *testing.T) {
	svc := authtest.NewService(t)
	calls := 0
	router := newGatedRouter(t, svc, &calls)

	w := doRequest(router, authtest.AccessToken(t, svc, auth.Identity{UserID: 42, Role: database.RoleUser}))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"userId":42}`, w.Body.String())
	require.Equal(t, 1, calls)
	require.NotEmpty(t, w.Header().Get(CorrelationIDHeader))
}

func TestRequireRoles_ForbidsUserOnAdminRoute(t *testing.T) {
	svc := authtest.NewService(t)
	calls := 0
	router := newGatedRouter(t, svc, &calls, database.RoleAdmin)

	w := doRequest(router, authtest.AccessToken(t, svc, auth.Identity{UserID: 2, Role: database.RoleUser}))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "forbidden", errorKind(t, w))
	require.Zero(t, calls)

	w = doRequest(router, authtest.AccessToken(t, svc, auth.Identity{UserID: 1, Role: database.RoleAdmin}))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, calls)
}

func TestPasswordGate_BlocksFlaggedAccounts(t *testing.T) {
	svc := authtest.NewService(t)
	calls := 0
	router := newGatedRouter(t, svc, &calls)

	w := doRequest(router, authtest.AccessToken(t, svc, auth.Identity{UserID: 1, Role: database.RoleAdmin, MustChangePassword: true}))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Zero(t, calls)
}

func TestInternalSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	open := gin.New()
	open.GET("/metrics", InternalSecret(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	guarded := gin.New()
	guarded.GET("/metrics", InternalSecret("s3cret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Internal-Secret", "s3cret")
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

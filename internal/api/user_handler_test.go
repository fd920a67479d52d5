package api

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/database"
)

type userView struct {
	ID    uint          `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  database.Role `json:"role"`
}

func TestUserRoutes_AdminManagesAccounts(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)
	user := srv.token(t, database.RoleUser)

	body := map[string]any{"name": "Eve", "email": "eve@example.test", "password": "password-1", "role": "ADMIN"}
	w := srv.do(t, http.MethodPost, "/v1/users", user, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/v1/users", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotContains(t, w.Body.String(), `"password"`)
	created := decodeData[userView](t, w)
	require.Equal(t, database.RoleAdmin, created.Role)

	w = srv.do(t, http.MethodPost, "/v1/users", admin, map[string]any{"name": "X", "email": "x@example.test", "password": "password-1", "role": "ROOT"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "role must be one of: ADMIN, USER", decode(t, w).Message)

	w = srv.do(t, http.MethodGet, "/v1/users?role=ADMIN", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeData[[]userView](t, w), 1)

	w = srv.do(t, http.MethodGet, "/v1/users?role=ROOT", user, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// emails are stored lower-cased, so lookups are too
	w = srv.do(t, http.MethodGet, "/v1/users?email="+url.QueryEscape(" Eve@Example.TEST"), user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decodeData[[]userView](t, w)
	require.Len(t, found, 1)
	require.Equal(t, created.ID, found[0].ID)

	path := fmt.Sprintf("/v1/users/%d", created.ID)
	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"name": "Eve Adams"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Eve Adams", decodeData[userView](t, w).Name)

	w = srv.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodGet, path, user, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_HealthAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/v1/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", decode(t, w).Error)
}

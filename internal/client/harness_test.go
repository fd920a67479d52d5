package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"cmsadmin/internal/api"
	"cmsadmin/internal/auth/authtest"
	"cmsadmin/internal/config"
	"cmsadmin/internal/database"
	"cmsadmin/internal/database/databasetest"
	"cmsadmin/internal/service"
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "https://cdn.example.test/" + key, nil
}

func (b *memBlobs) Destroy(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.test/signed/" + key, nil
}

type memRevoker struct{ revoked sync.Map }

func (r *memRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	r.revoked.Store(jti, true)
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.revoked.Load(jti)
	return ok, nil
}

type openLimiter struct{}

func (openLimiter) Allow(context.Context, string, string) error { return nil }
func (openLimiter) RecordFailure(context.Context, string)       {}
func (openLimiter) Reset(context.Context, string)               {}

// apiServer runs the real router over sqlite and counts GET requests per resource.
type apiServer struct {
	*httptest.Server
	users *service.UserService
	gets  sync.Map
}

func (s *apiServer) getCount(resource string) int32 {
	v, ok := s.gets.Load(resource)
	if !ok {
		return 0
	}
	return v.(*atomic.Int32).Load()
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := databasetest.Open(t)
	cfg := &config.Config{}
	cfg.Upload.MaxBytes = 1 << 20
	cfg.Upload.PresignExpiry = time.Minute

	users := service.NewUserService(db, nil, nil)
	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Tokens:   authtest.NewService(t),
		Revoker:  &memRevoker{},
		Limiter:  openLimiter{},
		Users:    users,
		Contents: service.NewContentService(db, nil, nil),
		Forms:    service.NewFormService(db, nil, nil),
		Media:    service.NewMediaService(db, &memBlobs{objects: map[string][]byte{}}, nil, nil),
		SEOs:     service.NewSEOService(db, nil, nil),
	})

	srv := &apiServer{users: users}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/"), "/")
			v, _ := srv.gets.LoadOrStore(parts[0], new(atomic.Int32))
			v.(*atomic.Int32).Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// adminClient returns a client logged in as a fresh ADMIN account.
func adminClient(t *testing.T, srv *apiServer) *Client {
	t.Helper()
	_, err := srv.users.Create(context.Background(), service.NewUser{
		Name: "Admin", Email: "admin@example.test", Password: "password-1", Role: database.RoleAdmin,
	})
	require.NoError(t, err)

	c := NewClient(srv.URL)
	_, err = c.Login(context.Background(), "admin@example.test", "password-1")
	require.NoError(t, err)
	return c
}

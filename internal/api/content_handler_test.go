package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/database"
	"cmsadmin/internal/service"
	"cmsadmin/internal/store"
)

// countingContents fails the test if any method reaches it.
type countingContents struct {
	calls atomic.Int32
}

func (c *countingContents) Create(context.Context, service.ContentInput, ...string) (*database.Content, error) {
	c.calls.Add(1)
	return &database.Content{}, nil
}

func (c *countingContents) Get(context.Context, uint, ...string) (*database.Content, error) {
	c.calls.Add(1)
	return &database.Content{}, nil
}

func (c *countingContents) List(context.Context, store.Filter, ...string) ([]database.Content, error) {
	c.calls.Add(1)
	return nil, nil
}

func (c *countingContents) Update(context.Context, uint, service.ContentPatch, ...string) (*database.Content, error) {
	c.calls.Add(1)
	return &database.Content{}, nil
}

func (c *countingContents) Delete(context.Context, uint) error {
	c.calls.Add(1)
	return nil
}

func TestContentRoutes_GateStopsBeforeService(t *testing.T) {
	contents := &countingContents{}
	srv := newTestServer(t, func(d *Dependencies) { d.Contents = contents })
	body := map[string]any{"title": "t", "body": "b", "author": "ann"}

	w := srv.do(t, http.MethodPost, "/v1/contents", srv.token(t, database.RoleUser), body)
	require.Equal(t, http.StatusForbidden, w.Code)
	resp := decode(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "forbidden", resp.Error)
	require.Equal(t, "null", string(resp.Data))

	w = srv.do(t, http.MethodPost, "/v1/contents", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodDelete, "/v1/contents/1", srv.token(t, database.RoleUser), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	require.Zero(t, contents.calls.Load())

	w = srv.do(t, http.MethodGet, "/v1/contents", srv.token(t, database.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, contents.calls.Load())
}

func TestContentRoutes_ValidationMessage(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)

	w := srv.do(t, http.MethodPost, "/v1/contents", admin, map[string]any{"body": "b", "author": "ann"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.Equal(t, "title is required", resp.Message)
	require.Equal(t, "validation", resp.Error)

	w = srv.do(t, http.MethodPost, "/v1/contents", admin, map[string]any{"title": "t", "body": "b", "author": "ann", "status": "live"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "status must be one of: draft, published", decode(t, w).Message)

	w = srv.do(t, http.MethodGet, "/v1/contents?colour=red", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

type seoView struct {
	ID           uint   `json:"id"`
	CanonicalURL string `json:"canonicalUrl"`
	Robots       string `json:"robots"`
}

type mediaView struct {
	ID        uint   `json:"id"`
	FileName  string `json:"fileName"`
	FileType  string `json:"fileType"`
	StorageID string `json:"storageId"`
}

type expandedContent struct {
	ID    uint        `json:"id"`
	Title string      `json:"title"`
	Body  string      `json:"body"`
	SEO   *seoView    `json:"seo"`
	Media []mediaView `json:"media"`
}

type bareContent struct {
	ID    uint   `json:"id"`
	SEO   *uint  `json:"seo"`
	Media []uint `json:"media"`
}

func TestContentRoutes_Lifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)
	reader := srv.token(t, database.RoleUser)

	w := srv.do(t, http.MethodPost, "/v1/seos", admin, map[string]any{
		"title": "About", "description": "About us", "canonicalUrl": "https://site.test/about",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	seo := decodeData[seoView](t, w)

	w = srv.upload(t, admin, "cover.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	media := decodeData[mediaView](t, w)

	w = srv.do(t, http.MethodPost, "/v1/contents", admin, map[string]any{
		"title": "Hello", "body": "world", "author": "ann", "seo": seo.ID, "media": []uint{media.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	require.True(t, resp.Success)
	require.Equal(t, "Content created successfully", resp.Message)
	created := decodeData[expandedContent](t, w)
	require.NotNil(t, created.SEO)
	require.Equal(t, "https://site.test/about", created.SEO.CanonicalURL)
	require.Len(t, created.Media, 1)
	require.Equal(t, "cover.png", created.Media[0].FileName)

	path := fmt.Sprintf("/v1/contents/%d", created.ID)

	w = srv.do(t, http.MethodGet, path+"?expand=", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bare := decodeData[bareContent](t, w)
	require.Equal(t, seo.ID, *bare.SEO)
	require.Equal(t, []uint{media.ID}, bare.Media)

	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"title": "Hello again"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[expandedContent](t, w)
	require.Equal(t, "Hello again", updated.Title)
	require.Equal(t, "world", updated.Body)
	require.NotNil(t, updated.SEO)

	w = srv.do(t, http.MethodGet, "/v1/contents?author=ann", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeData[[]expandedContent](t, w), 1)

	w = srv.do(t, http.MethodGet, "/v1/contents?status=draft", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeData[[]expandedContent](t, w), 1)

	w = srv.do(t, http.MethodGet, "/v1/contents?status=bogus", reader, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "filter status must be one of: draft, published", decode(t, w).Message)

	w = srv.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	require.Equal(t, "Content deleted successfully", resp.Message)
	require.Equal(t, "null", string(resp.Data))

	w = srv.do(t, http.MethodGet, path, reader, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	resp = decode(t, w)
	require.Equal(t, "content not found", resp.Message)
	require.Equal(t, "not_found", resp.Error)

	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"title": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentRoutes_PasswordChangeGate(t *testing.T) {
	srv := newTestServer(t)
	pending := srv.tokenFor(t, 1, database.RoleAdmin, true)

	w := srv.do(t, http.MethodGet, "/v1/contents", pending, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "password change required", decode(t, w).Message)
}

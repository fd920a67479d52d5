package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/database"
)

func TestMediaRoutes_UploadSniffsType(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)

	w := srv.upload(t, admin, "Photo.PNG", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decodeData[mediaView](t, w)
	require.Equal(t, "image/png", rec.FileType)
	require.Equal(t, "Photo.PNG", rec.FileName)
	require.True(t, strings.HasPrefix(rec.StorageID, "media/1/"))
	require.True(t, strings.HasSuffix(rec.StorageID, ".png"))
	require.Equal(t, 1, srv.blobs.count())

	// the declared extension does not matter, the bytes do
	w = srv.upload(t, admin, "notes.png", []byte("just some text"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "file type text/plain is not allowed", decode(t, w).Message)

	w = srv.upload(t, admin, "empty.png", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 1, srv.blobs.count())
}

func TestMediaRoutes_UploadRejectsLargeFiles(t *testing.T) {
	srv := newTestServer(t)
	big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)

	w := srv.upload(t, srv.token(t, database.RoleAdmin), "big.png", big)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, srv.blobs.count())
}

func TestMediaRoutes_VirusScan(t *testing.T) {
	srv := newTestServer(t, func(d *Dependencies) { d.Scanner = stubScanner{err: errMaliciousFile} })
	w := srv.upload(t, srv.token(t, database.RoleAdmin), "eicar.png", pngBytes)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "malicious file detected", decode(t, w).Message)
	require.Zero(t, srv.blobs.count())

	srv = newTestServer(t, func(d *Dependencies) { d.Scanner = stubScanner{err: errors.New("dial tcp: refused")} })
	w = srv.upload(t, srv.token(t, database.RoleAdmin), "a.png", pngBytes)
	require.Equal(t, http.StatusBadGateway, w.Code)

	srv = newTestServer(t, func(d *Dependencies) { d.Scanner = stubScanner{} })
	w = srv.upload(t, srv.token(t, database.RoleAdmin), "a.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, 1, srv.blobs.count())
}

func TestMediaRoutes_UploadIsAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	w := srv.upload(t, srv.token(t, database.RoleUser), "a.png", pngBytes)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Zero(t, srv.blobs.count())
}

func TestMediaRoutes_DeleteKeepsRecordWhenStorageFails(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)

	w := srv.upload(t, admin, "a.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeData[mediaView](t, w)
	path := fmt.Sprintf("/v1/medias/%d", rec.ID)

	srv.blobs.destroyErr = errors.New("s3 down")
	w = srv.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "upstream", decode(t, w).Error)

	w = srv.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	srv.blobs.destroyErr = nil
	w = srv.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, srv.blobs.count())

	w = srv.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaRoutes_LinkAndFilters(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)

	w := srv.upload(t, admin, "a.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeData[mediaView](t, w)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/v1/medias/%d/link", rec.ID), srv.token(t, database.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	link := decodeData[struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expiresIn"`
	}](t, w)
	require.Equal(t, "https://cdn.example.test/signed/"+rec.StorageID, link.URL)
	require.Equal(t, 60, link.ExpiresIn)

	w = srv.do(t, http.MethodGet, "/v1/medias?fileType=image/png", admin, nil)
	require.Len(t, decodeData[[]mediaView](t, w), 1)
	w = srv.do(t, http.MethodGet, "/v1/medias?createdBy=2", admin, nil)
	require.Empty(t, decodeData[[]mediaView](t, w))
	w = srv.do(t, http.MethodGet, "/v1/medias?createdBy=abc", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMediaRoutes_UpdateRenamesOnly(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, database.RoleAdmin)

	w := srv.upload(t, admin, "a.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decodeData[mediaView](t, w)
	path := fmt.Sprintf("/v1/medias/%d", rec.ID)

	w = srv.do(t, http.MethodPut, path, srv.token(t, database.RoleUser), map[string]any{"fileName": "b.png"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"fileName": `uploads\hero.png`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Media updated successfully", decode(t, w).Message)
	renamed := decodeData[mediaView](t, w)
	require.Equal(t, "hero.png", renamed.FileName)
	require.Equal(t, rec.StorageID, renamed.StorageID)
	require.Equal(t, "image/png", renamed.FileType)

	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"fileType": "application/pdf"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "fileType cannot be changed", decode(t, w).Message)

	w = srv.do(t, http.MethodPut, path, admin, map[string]any{"storageId": "media/9/x.png"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, rec.StorageID, decodeData[mediaView](t, w).StorageID)

	w = srv.do(t, http.MethodPut, "/v1/medias/404", admin, map[string]any{"fileName": "x.png"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 1, srv.blobs.count())
}

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/service"
)

const sniffLen = 512

// VirusScanner inspects an upload before it is stored.
type VirusScanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner streams uploads to a clamd daemon.
type ClamdScanner struct {
	addr string
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{addr: addr}
}

var errMaliciousFile = errors.New("malicious file detected")

func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := clamd.NewClamd(s.addr).ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for result := range results {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

// UploadLimits bounds what the media handler accepts.
type UploadLimits struct {
	MaxBytes      int64
	AllowedTypes  []string
	PresignExpiry time.Duration
}

type MediaHandler struct {
	media   MediaService
	limits  UploadLimits
	scanner VirusScanner
}

// NewMediaHandler builds the handler. A nil scanner skips the virus scan.
func NewMediaHandler(media MediaService, limits UploadLimits, scanner VirusScanner) *MediaHandler {
	if limits.PresignExpiry <= 0 {
		limits.PresignExpiry = 15 * time.Minute
	}
	return &MediaHandler{media: media, limits: limits, scanner: scanner}
}

var (
	mediaDefaultExpand = []string{service.ExpandCreatedBy}

	mediaFilters = map[string]queryFilter{
		"fileType":  textFilter("file_type"),
		"createdBy": idFilter("created_by_id"),
		"storageId": textFilter("storage_key"),
	}
)

// Upload accepts a multipart file under "file", checks size, sniffed type and
// optionally scans it, then hands it to the media service.
// @Summary Upload a file
// @Tags medias
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to store"
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 413 {object} envelope.Body
// @Failure 415 {object} envelope.Body
// @Router /medias [post]
// @Router /medias/upload [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	who, ok := middleware.IdentityFromContext(c)
	if !ok {
		fail(c, errcode.New(errcode.KindUnauthorized, "authentication required"))
		return
	}
	logger := middleware.LoggerFromContext(c)

	if h.limits.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxBytes+(1<<20))
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, errcode.Validation("file exceeds the upload size limit"))
			return
		}
		fail(c, errcode.Validation("file is required"))
		return
	}
	if file.Size == 0 {
		fail(c, errcode.Validation("file is empty"))
		return
	}
	if h.limits.MaxBytes > 0 && file.Size > h.limits.MaxBytes {
		fail(c, errcode.Validation("file exceeds the upload size limit"))
		return
	}

	f, err := file.Open()
	if err != nil {
		fail(c, errcode.Wrap(errcode.KindInternal, "open upload", err))
		return
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		fail(c, errcode.Wrap(errcode.KindInternal, "read upload", err))
		return
	}
	head = head[:n]

	contentType := sniffContentType(head)
	if len(h.limits.AllowedTypes) > 0 && !slices.Contains(h.limits.AllowedTypes, contentType) {
		fail(c, errcode.Validation(fmt.Sprintf("file type %s is not allowed", contentType)))
		return
	}

	if h.scanner != nil {
		if err := h.scanner.Scan(io.MultiReader(bytes.NewReader(head), f)); err != nil {
			if errors.Is(err, errMaliciousFile) {
				logger.Warn("upload rejected by virus scan", slog.String("file_name", file.Filename))
				fail(c, errcode.Validation("malicious file detected"))
				return
			}
			fail(c, errcode.Wrap(errcode.KindUpstream, "virus scan unavailable", err))
			return
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		fail(c, errcode.Wrap(errcode.KindInternal, "rewind upload", err))
		return
	}

	rec, err := h.media.Upload(c.Request.Context(), who, service.Upload{
		FileName:    file.Filename,
		ContentType: contentType,
		Size:        file.Size,
		Body:        f,
	})
	if err != nil {
		fail(c, err)
		return
	}
	logger.Info("media uploaded",
		slog.Uint64("media_id", uint64(rec.ID)),
		slog.String("storage_key", rec.StorageKey),
	)
	envelope.Created(c, "Media uploaded successfully", toMediaDTO(rec))
}

// sniffContentType drops parameters such as "; charset=utf-8".
func sniffContentType(head []byte) string {
	ct := mimetype.Detect(head).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// @Summary Get a media record
// @Tags medias
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param expand query string false "Comma-separated relations to expand, default createdBy"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /medias/{id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := h.media.Get(c.Request.Context(), id, parseExpand(c, mediaDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", toMediaDTO(rec))
}

// @Summary List media
// @Tags medias
// @Produce json
// @Security BearerAuth
// @Param fileType query string false "Exact MIME type"
// @Param createdBy query integer false "Uploader id"
// @Param storageId query string false "Object key"
// @Param expand query string false "Comma-separated relations to expand, default createdBy"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /medias [get]
func (h *MediaHandler) List(c *gin.Context) {
	filter, err := parseFilters(c, mediaFilters)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.media.List(c.Request.Context(), filter, parseExpand(c, mediaDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", toMediaDTOs(list))
}

type updateMediaRequest struct {
	FileName  *string `json:"fileName" binding:"omitempty,min=1,max=255"`
	FileType  *string `json:"fileType"`
	FileURL   *string `json:"fileUrl"`
	StorageID *string `json:"storageId"`
}

// Update renames a media record. The stored blob and its type never change here.
// @Summary Rename a media record
// @Tags medias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param expand query string false "Comma-separated relations to expand, default createdBy"
// @Param request body api.updateMediaRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /medias/{id} [put]
func (h *MediaHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateMediaRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	switch {
	case req.FileType != nil:
		fail(c, errcode.Validation("fileType cannot be changed"))
		return
	case req.FileURL != nil:
		fail(c, errcode.Validation("fileUrl cannot be changed"))
		return
	case req.StorageID != nil:
		fail(c, errcode.Validation("storageId cannot be changed"))
		return
	}
	rec, err := h.media.Update(c.Request.Context(), id, service.MediaPatch{FileName: req.FileName}, parseExpand(c, mediaDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Media updated successfully", toMediaDTO(rec))
}

// Link returns a presigned download URL for the blob.
// @Summary Presigned download URL
// @Tags medias
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /medias/{id}/link [get]
func (h *MediaHandler) Link(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	link, err := h.media.PresignedURL(c.Request.Context(), id, h.limits.PresignExpiry)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", gin.H{
		"url":       link,
		"expiresIn": int(h.limits.PresignExpiry.Seconds()),
	})
}

// Delete removes the remote object first; if that fails the record is kept.
// @Summary Delete a media record and its blob
// @Tags medias
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Failure 502 {object} envelope.Body
// @Router /medias/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.media.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Media deleted successfully", nil)
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/metrics"
	"cmsadmin/internal/store"
)

// ExpandCreatedBy resolves the uploader of a media record.
const ExpandCreatedBy = "createdBy"

// MediaKeyPrefix is the object key prefix every upload is stored under.
const MediaKeyPrefix = "media/"

// BlobStore is the object storage the media service writes through.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Destroy(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type MediaService struct {
	*Resource[database.Media]
	blobs BlobStore
	now   func() time.Time
}

func NewMediaService(db *gorm.DB, blobs BlobStore, pub events.Publisher, logger *slog.Logger) *MediaService {
	st := store.New(db, "media",
		store.WithFilterable[database.Media]("file_type", "created_by_id", "storage_key"),
		store.WithExpander(ExpandCreatedBy, store.BelongsTo(
			func(m *database.Media) *uint { return &m.CreatedByID },
			func(m *database.Media, u *database.User) { m.CreatedBy = u },
		)),
	)
	return &MediaService{
		Resource: NewResource(st, "medias", pub, logger),
		blobs:    blobs,
		now:      time.Now,
	}
}

// Upload is a file accepted by the HTTP layer. ContentType is the sniffed type.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the blob first and then the record. If the record cannot be
// written the blob is destroyed again.
func (s *MediaService) Upload(ctx context.Context, who auth.Identity, in Upload) (*database.Media, error) {
	if who.UserID == 0 {
		return nil, errcode.New(errcode.KindUnauthorized, "uploader identity required")
	}
	fileName, err := cleanFileName(in.FileName)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(who.UserID, fileName)
	fileURL, err := s.blobs.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		metrics.StorageFailed("put")
		metrics.MediaUploaded("failed")
		return nil, errcode.Wrap(errcode.KindUpstream, "object storage upload failed", err)
	}

	rec := &database.Media{
		FileName:    fileName,
		FileURL:     fileURL,
		FileType:    in.ContentType,
		StorageKey:  key,
		Size:        in.Size,
		CreatedByID: who.UserID,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.Resource.Create(ctx, rec); err != nil {
		if derr := s.blobs.Destroy(context.WithoutCancel(ctx), key); derr != nil {
			metrics.StorageFailed("destroy")
			s.logger.Error("destroy blob after failed insert",
				slog.String("storage_key", key),
				slog.Any("error", derr),
			)
		}
		metrics.MediaUploaded("failed")
		return nil, err
	}

	metrics.MediaUploaded("stored")
	return s.Get(ctx, rec.ID, ExpandCreatedBy)
}

// MediaPatch carries the metadata an admin may change after upload. The
// blob itself, its type and its key are fixed.
type MediaPatch struct {
	FileName *string
}

func (s *MediaService) Update(ctx context.Context, id uint, p MediaPatch, expand ...string) (*database.Media, error) {
	patch := store.Patch{}
	if p.FileName != nil {
		fileName, err := cleanFileName(*p.FileName)
		if err != nil {
			return nil, err
		}
		patch["file_name"] = fileName
	}
	return s.Resource.Update(ctx, id, patch, expand...)
}

// Delete destroys the remote object and only then the record. When the
// object store refuses, the record stays.
func (s *MediaService) Delete(ctx context.Context, id uint) error {
	rec, err := s.Store().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Destroy(ctx, rec.StorageKey); err != nil {
		metrics.StorageFailed("destroy")
		return errcode.Wrap(errcode.KindUpstream, "object storage delete failed", err)
	}
	return s.Resource.Delete(ctx, id)
}

// PresignedURL returns a time-limited download link for the media record.
func (s *MediaService) PresignedURL(ctx context.Context, id uint, ttl time.Duration) (string, error) {
	rec, err := s.Store().FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	link, err := s.blobs.PresignedURL(ctx, rec.StorageKey, ttl)
	if err != nil {
		metrics.StorageFailed("presign")
		return "", errcode.Wrap(errcode.KindUpstream, "object storage unavailable", err)
	}
	return link, nil
}

func cleanFileName(name string) (string, error) {
	fileName := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		return "", errcode.Validation("file name is required")
	}
	return fileName, nil
}

// ObjectKey builds media/<userID>/<uuid><ext> for an upload.
func ObjectKey(userID uint, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s%d/%s%s", MediaKeyPrefix, userID, uuid.NewString(), ext)
}

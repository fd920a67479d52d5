// Package worker holds the asynq task handlers run by cmd/worker.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"cmsadmin/internal/database"
	"cmsadmin/internal/metrics"
	"cmsadmin/internal/service"
	"cmsadmin/internal/storage"
	"cmsadmin/internal/store"
	"cmsadmin/internal/tasks"
)

// ObjectStore is the part of the blob store the reconciler needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]storage.ObjectMeta, error)
	Destroy(ctx context.Context, key string) error
}

// ReconcileHandler removes blobs that no media record points at. Uploads
// write the blob before the record and deletes drop the blob before the
// record, so a crash in between leaves an orphan blob behind.
type ReconcileHandler struct {
	objects ObjectStore
	media   *store.Store[database.Media]
	minAge  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconcileHandler builds the handler. Objects younger than minAge are
// left alone so in-flight uploads are not mistaken for orphans.
func NewReconcileHandler(db *gorm.DB, objects ObjectStore, minAge time.Duration, logger *slog.Logger) *ReconcileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileHandler{
		objects: objects,
		media:   store.New(db, "media", store.WithFilterable[database.Media]("storage_key")),
		minAge:  minAge,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.MediaReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal reconcile payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}
	_, err := h.Reconcile(ctx, payload.Prefix)
	return err
}

// Reconcile scans prefix (media/ when empty) and destroys orphaned objects.
// It returns how many were removed. A failed destroy is logged and skipped.
func (h *ReconcileHandler) Reconcile(ctx context.Context, prefix string) (int, error) {
	if prefix == "" || !strings.HasPrefix(prefix, service.MediaKeyPrefix) {
		prefix = service.MediaKeyPrefix
	}
	log := h.logger.With(slog.String("prefix", prefix))

	objects, err := h.objects.List(ctx, prefix)
	if err != nil {
		metrics.StorageFailed("list")
		return 0, fmt.Errorf("list objects: %w", err)
	}

	cutoff := h.now().Add(-h.minAge)
	removed := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		referenced, err := h.media.Exists(ctx, store.Filter{"storage_key": obj.Key})
		if err != nil {
			return removed, fmt.Errorf("check %s: %w", obj.Key, err)
		}
		if referenced {
			continue
		}
		if err := h.objects.Destroy(ctx, obj.Key); err != nil {
			metrics.StorageFailed("destroy")
			log.Warn("destroy orphan object failed", slog.String("storage_key", obj.Key), slog.Any("error", err))
			continue
		}
		removed++
		log.Info("orphan object destroyed", slog.String("storage_key", obj.Key), slog.Int64("size", obj.Size))
	}

	metrics.OrphansRemoved(removed)
	log.Info("media reconcile finished", slog.Int("scanned", len(objects)), slog.Int("removed", removed))
	return removed, nil
}

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/database"
	"cmsadmin/internal/database/databasetest"
	"cmsadmin/internal/storage"
	"cmsadmin/internal/tasks"
)

type fakeObjects struct {
	objects   []storage.ObjectMeta
	destroyed []string
	failOn    string
	listErr   error
}

func (f *fakeObjects) List(_ context.Context, prefix string) ([]storage.ObjectMeta, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []storage.ObjectMeta
	for _, o := range f.objects {
		if len(o.Key) >= len(prefix) && o.Key[:len(prefix)] == prefix {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObjects) Destroy(_ context.Context, key string) error {
	if key == f.failOn {
		return errors.New("access denied")
	}
	f.destroyed = append(f.destroyed, key)
	return nil
}

func TestReconcile_DestroysOnlyOldUnreferencedObjects(t *testing.T) {
	db := databasetest.Open(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-2 * time.Hour)

	require.NoError(t, db.Create(&database.Media{
		FileName: "kept.png", FileURL: "u", FileType: "image/png",
		StorageKey: "media/1/kept.png", CreatedByID: 1, UploadedAt: old,
	}).Error)

	objects := &fakeObjects{objects: []storage.ObjectMeta{
		{Key: "media/1/kept.png", LastModified: old},
		{Key: "media/1/orphan.png", LastModified: old},
		{Key: "media/1/fresh.png", LastModified: now.Add(-time.Minute)},
		{Key: "media/1/stuck.png", LastModified: old},
		{Key: "exports/report.csv", LastModified: old},
	}, failOn: "media/1/stuck.png"}

	h := NewReconcileHandler(db, objects, time.Hour, nil)
	h.now = func() time.Time { return now }

	removed, err := h.Reconcile(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, []string{"media/1/orphan.png"}, objects.destroyed)
}

func TestReconcile_ListFailure(t *testing.T) {
	h := NewReconcileHandler(databasetest.Open(t), &fakeObjects{listErr: errors.New("timeout")}, time.Hour, nil)
	_, err := h.Reconcile(context.Background(), "media/")
	require.Error(t, err)
}

func TestReconcile_ProcessTask(t *testing.T) {
	objects := &fakeObjects{objects: []storage.ObjectMeta{
		{Key: "media/2/a.pdf", LastModified: time.Now().Add(-48 * time.Hour)},
	}}
	h := NewReconcileHandler(databasetest.Open(t), objects, time.Hour, nil)

	task, err := tasks.NewMediaReconcileTask("media/2/")
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.Equal(t, []string{"media/2/a.pdf"}, objects.destroyed)
}

// Package tasks defines the asynq task types shared by producers and the worker.
package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeMediaReconcile = "media:reconcile"
)

// MediaReconcilePayload scopes one reconcile run to a key prefix.
type MediaReconcilePayload struct {
	Prefix      string    `json:"prefix"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewMediaReconcileTask builds a reconcile task for objects under prefix.
// Only one such task may be queued at a time.
func NewMediaReconcileTask(prefix string) (*asynq.Task, error) {
	payload, err := json.Marshal(MediaReconcilePayload{
		Prefix:      prefix,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMediaReconcile, payload, asynq.Unique(time.Hour), asynq.MaxRetry(1)), nil
}

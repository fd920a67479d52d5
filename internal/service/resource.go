// Package service holds the per-entity operations the HTTP layer calls. Each
// entity service embeds a generic Resource that pairs a store with change
// notifications.
package service

import (
	"context"
	"log/slog"

	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/store"
)

// Resource is the generic create/get/list/update/delete service over one store.
// Successful mutations are announced on the change feed under name.
type Resource[T store.Identified] struct {
	store  *store.Store[T]
	name   string
	events events.Publisher
	logger *slog.Logger
}

func NewResource[T store.Identified](st *store.Store[T], name string, pub events.Publisher, logger *slog.Logger) *Resource[T] {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource[T]{store: st, name: name, events: pub, logger: logger}
}

// Name is the plural resource name used on the change feed ("contents").
func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) Store() *store.Store[T] { return r.store }

func (r *Resource[T]) Create(ctx context.Context, rec *T) error {
	if err := r.store.Create(ctx, rec); err != nil {
		return err
	}
	r.notify(ctx, events.ActionCreated, (*rec).PrimaryKey())
	return nil
}

func (r *Resource[T]) Get(ctx context.Context, id uint, expand ...string) (*T, error) {
	return r.store.FindByID(ctx, id, expand...)
}

func (r *Resource[T]) List(ctx context.Context, filter store.Filter, expand ...string) ([]T, error) {
	return r.store.FindMany(ctx, filter, expand...)
}

// Update applies a partial patch. It never creates a missing record.
func (r *Resource[T]) Update(ctx context.Context, id uint, patch store.Patch, expand ...string) (*T, error) {
	rec, err := r.store.UpdateByID(ctx, id, patch, expand...)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, events.ActionUpdated, id)
	return rec, nil
}

// Delete removes the record; deleting an absent id is a not-found error.
func (r *Resource[T]) Delete(ctx context.Context, id uint) error {
	n, err := r.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return errcode.NotFound(r.store.Name() + " not found")
	}
	r.notify(ctx, events.ActionDeleted, id)
	return nil
}

func (r *Resource[T]) notify(ctx context.Context, action events.Action, id uint) {
	events.Notify(context.WithoutCancel(ctx), r.events, r.logger, events.Event{
		Resource: r.name,
		Action:   action,
		ID:       id,
	})
}

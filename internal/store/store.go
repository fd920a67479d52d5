// Package store is the persistence layer shared by every entity: one generic
// gorm-backed Store per table with equality filters, partial updates and
// named reference expansion.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cmsadmin/internal/errcode"
)

// Filter is an equality match on registered filterable columns. An empty filter matches everything.
type Filter map[string]any

// Patch assigns new values to the named columns. Columns absent from the patch keep their value.
type Patch map[string]any

// immutable columns are never accepted in a Patch.
var immutable = map[string]struct{}{"id": {}, "created_at": {}}

// Store persists records of one entity type.
type Store[T any] struct {
	db         *gorm.DB
	name       string
	filterable map[string]struct{}
	expanders  map[string]Expander[T]
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithFilterable allows the given columns in FindMany/FindOne filters.
func WithFilterable[T any](columns ...string) Option[T] {
	return func(s *Store[T]) {
		for _, c := range columns {
			s.filterable[c] = struct{}{}
		}
	}
}

// WithExpander registers a named reference that reads can expand.
func WithExpander[T any](name string, fn Expander[T]) Option[T] {
	return func(s *Store[T]) {
		s.expanders[name] = fn
	}
}

// New builds a Store for T. name is used in error messages ("content not found").
func New[T any](db *gorm.DB, name string, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		db:         db,
		name:       name,
		filterable: map[string]struct{}{},
		expanders:  map[string]Expander[T]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the entity name the store was built with.
func (s *Store[T]) Name() string { return s.name }

// Expandable lists the registered expansion names in sorted order.
func (s *Store[T]) Expandable() []string {
	names := make([]string, 0, len(s.expanders))
	for name := range s.expanders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create inserts rec; the store assigns ID, CreatedAt and UpdatedAt.
func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return s.translate("create", err)
	}
	return nil
}

// FindByID loads one record and expands the requested references.
func (s *Store[T]) FindByID(ctx context.Context, id uint, expand ...string) (*T, error) {
	if err := s.checkExpand(expand); err != nil {
		return nil, err
	}
	var rec T
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, s.translate("find", err)
	}
	if err := s.expand(ctx, []*T{&rec}, expand); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindOne returns the first record matching filter, ordered by id.
func (s *Store[T]) FindOne(ctx context.Context, filter Filter, expand ...string) (*T, error) {
	if err := s.checkExpand(expand); err != nil {
		return nil, err
	}
	q, err := s.where(s.db.WithContext(ctx), filter)
	if err != nil {
		return nil, err
	}
	var rec T
	if err := q.Order("id").First(&rec).Error; err != nil {
		return nil, s.translate("find", err)
	}
	if err := s.expand(ctx, []*T{&rec}, expand); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindMany returns every record matching filter, ordered by id.
func (s *Store[T]) FindMany(ctx context.Context, filter Filter, expand ...string) ([]T, error) {
	if err := s.checkExpand(expand); err != nil {
		return nil, err
	}
	q, err := s.where(s.db.WithContext(ctx), filter)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0)
	if err := q.Order("id").Find(&records).Error; err != nil {
		return nil, s.translate("list", err)
	}
	ptrs := make([]*T, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	if err := s.expand(ctx, ptrs, expand); err != nil {
		return nil, err
	}
	return records, nil
}

// Exists reports whether any record matches filter.
func (s *Store[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	q, err := s.where(s.db.WithContext(ctx).Model(new(T)), filter)
	if err != nil {
		return false, err
	}
	var count int64
	if err := q.Limit(1).Count(&count).Error; err != nil {
		return false, s.translate("count", err)
	}
	return count > 0, nil
}

// UpdateByID applies patch to an existing record and returns the stored result.
// It never creates: an absent id yields a not-found error.
func (s *Store[T]) UpdateByID(ctx context.Context, id uint, patch Patch, expand ...string) (*T, error) {
	if err := s.checkExpand(expand); err != nil {
		return nil, err
	}
	for col := range patch {
		if _, ok := immutable[col]; ok {
			return nil, errcode.Validation(fmt.Sprintf("%s is read-only", col))
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current T
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}
		if len(patch) == 0 {
			return nil
		}
		return tx.Model(&current).Updates(map[string]any(patch)).Error
	})
	if err != nil {
		return nil, s.translate("update", err)
	}
	return s.FindByID(ctx, id, expand...)
}

// Save writes every column of rec, inserting it when it has no id yet.
func (s *Store[T]) Save(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return s.translate("save", err)
	}
	return nil
}

// DeleteByID removes the record and returns how many rows went away (0 or 1).
func (s *Store[T]) DeleteByID(ctx context.Context, id uint) (int64, error) {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return 0, s.translate("delete", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store[T]) where(q *gorm.DB, filter Filter) (*gorm.DB, error) {
	cols := make([]string, 0, len(filter))
	for col := range filter {
		if _, ok := s.filterable[col]; !ok {
			return nil, errcode.Validation(fmt.Sprintf("cannot filter %s by %q", s.name, col))
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: filter[col]})
	}
	return q, nil
}

func (s *Store[T]) checkExpand(names []string) error {
	for _, name := range names {
		if _, ok := s.expanders[name]; !ok {
			return errcode.Validation(fmt.Sprintf("cannot expand %q on %s", name, s.name))
		}
	}
	return nil
}

func (s *Store[T]) expand(ctx context.Context, records []*T, names []string) error {
	if len(records) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if err := s.expanders[name](ctx, s.db, records); err != nil {
			return s.translate("expand "+name, err)
		}
	}
	return nil
}

func (s *Store[T]) translate(op string, err error) error {
	var coded *errcode.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errcode.Wrap(errcode.KindNotFound, s.name+" not found", err)
	case isDuplicateKey(err):
		return errcode.Wrap(errcode.KindConflict, s.name+" already exists", err)
	default:
		return errcode.Wrap(errcode.KindUpstream, "database request failed", fmt.Errorf("%s %s: %w", op, s.name, err))
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

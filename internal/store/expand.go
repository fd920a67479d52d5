package store

import (
	"context"

	"gorm.io/gorm"
)

// Expander resolves a stored reference on a batch of records in place.
// Implementations issue one query per call, never one per record.
type Expander[T any] func(ctx context.Context, db *gorm.DB, records []*T) error

// Identified is satisfied by every entity through the embedded database.Base.
type Identified interface {
	PrimaryKey() uint
}

// BelongsTo expands an optional single reference. A dangling id leaves the target nil.
func BelongsTo[T any, R Identified](key func(*T) *uint, set func(*T, *R)) Expander[T] {
	return func(ctx context.Context, db *gorm.DB, records []*T) error {
		ids := make([]uint, 0, len(records))
		for _, rec := range records {
			if id := key(rec); id != nil && *id != 0 {
				ids = append(ids, *id)
			}
		}
		byID, err := loadByIDs[R](ctx, db, ids)
		if err != nil {
			return err
		}
		for _, rec := range records {
			id := key(rec)
			if id == nil {
				continue
			}
			if ref, ok := byID[*id]; ok {
				ref := ref
				set(rec, &ref)
			}
		}
		return nil
	}
}

// HasMany expands a list of references, keeping the stored order and skipping dangling ids.
func HasMany[T any, R Identified](keys func(*T) []uint, set func(*T, []R)) Expander[T] {
	return func(ctx context.Context, db *gorm.DB, records []*T) error {
		var ids []uint
		for _, rec := range records {
			ids = append(ids, keys(rec)...)
		}
		byID, err := loadByIDs[R](ctx, db, ids)
		if err != nil {
			return err
		}
		for _, rec := range records {
			refs := make([]R, 0, len(keys(rec)))
			for _, id := range keys(rec) {
				if ref, ok := byID[id]; ok {
					refs = append(refs, ref)
				}
			}
			set(rec, refs)
		}
		return nil
	}
}

func loadByIDs[R Identified](ctx context.Context, db *gorm.DB, ids []uint) (map[uint]R, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return map[uint]R{}, nil
	}
	var rows []R
	if err := db.WithContext(ctx).Where("id IN ?", unique).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]R, len(rows))
	for _, row := range rows {
		byID[row.PrimaryKey()] = row
	}
	return byID, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

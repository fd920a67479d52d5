package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/store"
)

// Content references that reads can expand.
const (
	ExpandSEO   = "seo"
	ExpandMedia = "media"
)

type ContentService struct {
	*Resource[database.Content]
}

func NewContentService(db *gorm.DB, pub events.Publisher, logger *slog.Logger) *ContentService {
	st := store.New(db, "content",
		store.WithFilterable[database.Content]("title", "author", "category", "status", "seo_id"),
		store.WithExpander(ExpandSEO, store.BelongsTo(
			func(c *database.Content) *uint { return c.SEOID },
			func(c *database.Content, seo *database.SEO) { c.SEO = seo },
		)),
		store.WithExpander(ExpandMedia, store.HasMany(
			func(c *database.Content) []uint { return c.MediaIDs },
			func(c *database.Content, media []database.Media) { c.Media = media },
		)),
	)
	return &ContentService{Resource: NewResource(st, "contents", pub, logger)}
}

type ContentInput struct {
	Title       string
	Body        string
	Category    string
	Tags        []string
	Author      string
	Status      database.ContentStatus
	PublishedAt *time.Time
	SEOID       *uint
	MediaIDs    []uint
}

// ContentPatch lists the fields an update may change; nil means unchanged.
// A SEOID pointing at 0 detaches the SEO record.
type ContentPatch struct {
	Title       *string
	Body        *string
	Category    *string
	Tags        *[]string
	Author      *string
	Status      *database.ContentStatus
	PublishedAt *time.Time
	SEOID       *uint
	MediaIDs    *[]uint
}

func (s *ContentService) Create(ctx context.Context, in ContentInput, expand ...string) (*database.Content, error) {
	for _, f := range []struct{ name, value string }{{"title", in.Title}, {"body", in.Body}, {"author", in.Author}} {
		if strings.TrimSpace(f.value) == "" {
			return nil, errcode.Validation(f.name + " is required")
		}
	}
	status := in.Status
	if status == "" {
		status = database.ContentDraft
	}
	if !status.Valid() {
		return nil, errcode.Validation("status must be draft or published")
	}
	seoID := in.SEOID
	if seoID != nil && *seoID == 0 {
		seoID = nil
	}

	rec := &database.Content{
		Title:       in.Title,
		Body:        in.Body,
		Category:    in.Category,
		Tags:        datatypes.JSONSlice[string](nonNil(in.Tags)),
		Author:      in.Author,
		Status:      status,
		PublishedAt: in.PublishedAt,
		SEOID:       seoID,
		MediaIDs:    datatypes.JSONSlice[uint](nonNil(in.MediaIDs)),
	}
	if err := s.Resource.Create(ctx, rec); err != nil {
		return nil, err
	}
	if len(expand) == 0 {
		return rec, nil
	}
	return s.Get(ctx, rec.ID, expand...)
}

func (s *ContentService) Update(ctx context.Context, id uint, p ContentPatch, expand ...string) (*database.Content, error) {
	patch := store.Patch{}
	for _, f := range []struct {
		col   string
		value *string
	}{{"title", p.Title}, {"body", p.Body}, {"author", p.Author}} {
		if f.value == nil {
			continue
		}
		if strings.TrimSpace(*f.value) == "" {
			return nil, errcode.Validation(f.col + " must not be empty")
		}
		patch[f.col] = *f.value
	}
	if p.Category != nil {
		patch["category"] = *p.Category
	}
	if p.Tags != nil {
		patch["tags"] = datatypes.JSONSlice[string](nonNil(*p.Tags))
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, errcode.Validation("status must be draft or published")
		}
		patch["status"] = *p.Status
	}
	if p.PublishedAt != nil {
		patch["published_at"] = *p.PublishedAt
	}
	if p.SEOID != nil {
		if *p.SEOID == 0 {
			patch["seo_id"] = nil
		} else {
			patch["seo_id"] = *p.SEOID
		}
	}
	if p.MediaIDs != nil {
		patch["media_ids"] = datatypes.JSONSlice[uint](nonNil(*p.MediaIDs))
	}
	return s.Resource.Update(ctx, id, patch, expand...)
}

func nonNil[E any](s []E) []E {
	if s == nil {
		return []E{}
	}
	return s
}

package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/metrics"
	"cmsadmin/internal/store"
)

type SEOService struct {
	*Resource[database.SEO]
}

func NewSEOService(db *gorm.DB, pub events.Publisher, logger *slog.Logger) *SEOService {
	st := store.New(db, "seo",
		store.WithFilterable[database.SEO]("canonical_url", "robots", "created_by_id"),
	)
	return &SEOService{Resource: NewResource(st, "seos", pub, logger)}
}

type SEOInput struct {
	Title        string
	Description  string
	Keywords     []string
	CanonicalURL string
	Robots       string
}

type SEOPatch struct {
	Title        *string
	Description  *string
	Keywords     *[]string
	CanonicalURL *string
	Robots       *string
}

// Upsert creates the record for in.CanonicalURL or overwrites title,
// description, keywords and robots of the existing one. created reports which
// happened. A concurrent insert of the same URL is retried once as an update.
func (s *SEOService) Upsert(ctx context.Context, who auth.Identity, in SEOInput) (rec *database.SEO, created bool, err error) {
	canonical, err := normalizeCanonicalURL(in.CanonicalURL)
	if err != nil {
		return nil, false, err
	}
	in.CanonicalURL = canonical

	existing, err := s.Store().FindOne(ctx, store.Filter{"canonical_url": canonical})
	switch {
	case err == nil:
		rec, err = s.overwrite(ctx, existing.ID, in)
		if err == nil {
			metrics.SEOUpserted(false)
		}
		return rec, false, err
	case !errcode.Is(err, errcode.KindNotFound):
		return nil, false, err
	}

	rec = &database.SEO{
		Title:        in.Title,
		Description:  in.Description,
		Keywords:     datatypes.JSONSlice[string](nonNil(in.Keywords)),
		CanonicalURL: canonical,
		Robots:       robotsOrDefault(in.Robots),
		CreatedByID:  who.UserID,
	}
	if cerr := s.Resource.Create(ctx, rec); cerr != nil {
		if !errcode.Is(cerr, errcode.KindConflict) {
			return nil, false, cerr
		}
		existing, ferr := s.Store().FindOne(ctx, store.Filter{"canonical_url": canonical})
		if ferr != nil {
			return nil, false, ferr
		}
		rec, err = s.overwrite(ctx, existing.ID, in)
		if err == nil {
			metrics.SEOUpserted(false)
		}
		return rec, false, err
	}
	metrics.SEOUpserted(true)
	return rec, true, nil
}

func (s *SEOService) overwrite(ctx context.Context, id uint, in SEOInput) (*database.SEO, error) {
	return s.Resource.Update(ctx, id, store.Patch{
		"title":       in.Title,
		"description": in.Description,
		"keywords":    datatypes.JSONSlice[string](nonNil(in.Keywords)),
		"robots":      robotsOrDefault(in.Robots),
	})
}

// GetByURL looks a record up by its canonical URL.
func (s *SEOService) GetByURL(ctx context.Context, canonicalURL string) (*database.SEO, error) {
	canonical := strings.TrimSpace(canonicalURL)
	if canonical == "" {
		return nil, errcode.Validation("canonical url is required")
	}
	return s.Store().FindOne(ctx, store.Filter{"canonical_url": canonical})
}

func (s *SEOService) Update(ctx context.Context, id uint, p SEOPatch) (*database.SEO, error) {
	patch := store.Patch{}
	if p.Title != nil {
		patch["title"] = *p.Title
	}
	if p.Description != nil {
		patch["description"] = *p.Description
	}
	if p.Keywords != nil {
		patch["keywords"] = datatypes.JSONSlice[string](nonNil(*p.Keywords))
	}
	if p.CanonicalURL != nil {
		canonical, err := normalizeCanonicalURL(*p.CanonicalURL)
		if err != nil {
			return nil, err
		}
		patch["canonical_url"] = canonical
	}
	if p.Robots != nil {
		patch["robots"] = robotsOrDefault(*p.Robots)
	}
	return s.Resource.Update(ctx, id, patch)
}

func normalizeCanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errcode.Validation("canonicalUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errcode.Validation("canonicalUrl must be an absolute http(s) URL")
	}
	return raw, nil
}

func robotsOrDefault(robots string) string {
	if r := strings.TrimSpace(robots); r != "" {
		return r
	}
	return database.DefaultRobots
}

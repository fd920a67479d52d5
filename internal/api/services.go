package api

import (
	"context"
	"time"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/service"
	"cmsadmin/internal/store"
)

// UserService is what the user and auth handlers need from the user service.
type UserService interface {
	Create(ctx context.Context, in service.NewUser) (*database.User, error)
	Get(ctx context.Context, id uint, expand ...string) (*database.User, error)
	List(ctx context.Context, filter store.Filter, expand ...string) ([]database.User, error)
	Update(ctx context.Context, id uint, p service.UserPatch) (*database.User, error)
	Delete(ctx context.Context, id uint) error
	Authenticate(ctx context.Context, email, password string) (*database.User, error)
	ChangePassword(ctx context.Context, id uint, current, next string) (*database.User, error)
}

type ContentService interface {
	Create(ctx context.Context, in service.ContentInput, expand ...string) (*database.Content, error)
	Get(ctx context.Context, id uint, expand ...string) (*database.Content, error)
	List(ctx context.Context, filter store.Filter, expand ...string) ([]database.Content, error)
	Update(ctx context.Context, id uint, p service.ContentPatch, expand ...string) (*database.Content, error)
	Delete(ctx context.Context, id uint) error
}

type FormService interface {
	Create(ctx context.Context, in service.FormInput) (*database.Form, error)
	Get(ctx context.Context, id uint, expand ...string) (*database.Form, error)
	List(ctx context.Context, filter store.Filter, expand ...string) ([]database.Form, error)
	Update(ctx context.Context, id uint, p service.FormPatch) (*database.Form, error)
	Delete(ctx context.Context, id uint) error
}

type MediaService interface {
	Upload(ctx context.Context, who auth.Identity, in service.Upload) (*database.Media, error)
	Get(ctx context.Context, id uint, expand ...string) (*database.Media, error)
	List(ctx context.Context, filter store.Filter, expand ...string) ([]database.Media, error)
	Update(ctx context.Context, id uint, p service.MediaPatch, expand ...string) (*database.Media, error)
	Delete(ctx context.Context, id uint) error
	PresignedURL(ctx context.Context, id uint, ttl time.Duration) (string, error)
}

type SEOService interface {
	Upsert(ctx context.Context, who auth.Identity, in service.SEOInput) (*database.SEO, bool, error)
	GetByURL(ctx context.Context, canonicalURL string) (*database.SEO, error)
	Get(ctx context.Context, id uint, expand ...string) (*database.SEO, error)
	List(ctx context.Context, filter store.Filter, expand ...string) ([]database.SEO, error)
	Update(ctx context.Context, id uint, p service.SEOPatch) (*database.SEO, error)
	Delete(ctx context.Context, id uint) error
}

var (
	_ UserService    = (*service.UserService)(nil)
	_ ContentService = (*service.ContentService)(nil)
	_ FormService    = (*service.FormService)(nil)
	_ MediaService   = (*service.MediaService)(nil)
	_ SEOService     = (*service.SEOService)(nil)
)

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/database/databasetest"
	"cmsadmin/internal/errcode"
)

func TestSEOService_UpsertTwiceKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewSEOService(databasetest.Open(t), pub, nil)
	admin := auth.Identity{UserID: 3, Role: database.RoleAdmin}

	first, created, err := svc.Upsert(ctx, admin, SEOInput{
		Title: "First", Description: "d", Keywords: []string{"a"}, CanonicalURL: "https://site.test/page",
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, database.DefaultRobots, first.Robots)
	require.EqualValues(t, 3, first.CreatedByID)

	second, created, err := svc.Upsert(ctx, auth.Identity{UserID: 9, Role: database.RoleAdmin}, SEOInput{
		Title: "Second", Description: "d2", CanonicalURL: "https://site.test/page", Robots: "noindex",
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Second", second.Title)
	require.Equal(t, "noindex", second.Robots)
	require.Empty(t, second.Keywords)
	require.EqualValues(t, 3, second.CreatedByID)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)

	byURL, err := svc.GetByURL(ctx, "https://site.test/page")
	require.NoError(t, err)
	require.Equal(t, "Second", byURL.Title)
}

func TestSEOService_UpsertValidatesURL(t *testing.T) {
	ctx := context.Background()
	svc := NewSEOService(databasetest.Open(t), nil, nil)

	for _, raw := range []string{"", "not a url", "/relative/path", "ftp://site.test/x"} {
		_, _, err := svc.Upsert(ctx, auth.Identity{UserID: 1}, SEOInput{Title: "t", CanonicalURL: raw})
		require.True(t, errcode.Is(err, errcode.KindValidation), raw)
	}
}

func TestSEOService_GetByURLMissing(t *testing.T) {
	svc := NewSEOService(databasetest.Open(t), nil, nil)

	_, err := svc.GetByURL(context.Background(), "https://site.test/missing")
	require.True(t, errcode.Is(err, errcode.KindNotFound))
}

func TestSEOService_UpdateCanonicalConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewSEOService(databasetest.Open(t), nil, nil)
	admin := auth.Identity{UserID: 1, Role: database.RoleAdmin}

	_, _, err := svc.Upsert(ctx, admin, SEOInput{Title: "a", CanonicalURL: "https://site.test/a"})
	require.NoError(t, err)
	b, _, err := svc.Upsert(ctx, admin, SEOInput{Title: "b", CanonicalURL: "https://site.test/b"})
	require.NoError(t, err)

	taken := "https://site.test/a"
	_, err = svc.Update(ctx, b.ID, SEOPatch{CanonicalURL: &taken})
	require.True(t, errcode.Is(err, errcode.KindConflict))

	desc := "only description"
	updated, err := svc.Update(ctx, b.ID, SEOPatch{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "b", updated.Title)
	require.Equal(t, "only description", updated.Description)
}

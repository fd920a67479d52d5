package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/database/databasetest"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/store"
)

func TestContentService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewContentService(databasetest.Open(t), pub, nil)

	created, err := svc.Create(ctx, ContentInput{Title: "A", Body: "B", Author: "C", Status: database.ContentDraft})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	list, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "A", list[0].Title)

	published := database.ContentPublished
	updated, err := svc.Update(ctx, created.ID, ContentPatch{Status: &published})
	require.NoError(t, err)
	require.Equal(t, database.ContentPublished, updated.Status)
	require.Equal(t, "A", updated.Title)
	require.Equal(t, "B", updated.Body)
	require.Equal(t, created.ID, updated.ID)
	require.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.True(t, errcode.Is(err, errcode.KindNotFound))

	err = svc.Delete(ctx, created.ID)
	require.True(t, errcode.Is(err, errcode.KindNotFound))

	require.Equal(t, []events.Action{events.ActionCreated, events.ActionUpdated, events.ActionDeleted}, pub.actions("contents"))
}

func TestContentService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewContentService(databasetest.Open(t), nil, nil)

	_, err := svc.Create(ctx, ContentInput{Body: "B", Author: "C"})
	require.True(t, errcode.Is(err, errcode.KindValidation))
	require.Equal(t, "title is required", errcode.PublicMessage(err))

	_, err = svc.Create(ctx, ContentInput{Title: "A", Body: "B", Author: "C", Status: "archived"})
	require.True(t, errcode.Is(err, errcode.KindValidation))

	rec, err := svc.Create(ctx, ContentInput{Title: "A", Body: "B", Author: "C"})
	require.NoError(t, err)
	require.Equal(t, database.ContentDraft, rec.Status)
	require.NotNil(t, rec.Tags)
}

func TestContentService_UpdateMissingDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewContentService(databasetest.Open(t), nil, nil)

	title := "ghost"
	_, err := svc.Update(ctx, 42, ContentPatch{Title: &title})
	require.True(t, errcode.Is(err, errcode.KindNotFound))

	list, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestContentService_ExpandsSEOAndMedia(t *testing.T) {
	ctx := context.Background()
	db := databasetest.Open(t)
	contents := NewContentService(db, nil, nil)
	seos := NewSEOService(db, nil, nil)
	media := NewMediaService(db, newFakeBlobs(), nil, nil)
	admin := auth.Identity{UserID: 1, Role: database.RoleAdmin}

	seo, _, err := seos.Upsert(ctx, admin, SEOInput{Title: "t", Description: "d", CanonicalURL: "https://site.test/a"})
	require.NoError(t, err)
	img, err := media.Upload(ctx, admin, pngUpload("hero.png"))
	require.NoError(t, err)

	rec, err := contents.Create(ctx, ContentInput{
		Title: "A", Body: "B", Author: "C",
		SEOID:    &seo.ID,
		MediaIDs: []uint{img.ID},
	}, ExpandSEO, ExpandMedia)
	require.NoError(t, err)
	require.NotNil(t, rec.SEO)
	require.Equal(t, "https://site.test/a", rec.SEO.CanonicalURL)
	require.Len(t, rec.Media, 1)
	require.Equal(t, "hero.png", rec.Media[0].FileName)

	list, err := contents.List(ctx, store.Filter{"author": "C"}, ExpandSEO)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].SEO)
	require.Nil(t, list[0].Media)

	detach := uint(0)
	updated, err := contents.Update(ctx, rec.ID, ContentPatch{SEOID: &detach}, ExpandSEO)
	require.NoError(t, err)
	require.Nil(t, updated.SEOID)
	require.Nil(t, updated.SEO)

	require.NoError(t, contents.Delete(ctx, rec.ID))
	_, err = seos.Get(ctx, seo.ID)
	require.NoError(t, err)
	_, err = media.Get(ctx, img.ID)
	require.NoError(t, err)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/database"
	"cmsadmin/internal/database/databasetest"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/store"
)

func contactFields() []database.FormField {
	maxLen := 120
	required := true
	return []database.FormField{
		{Name: "email", Type: "email", Label: "Email", Validations: &database.FieldValidations{Required: &required}},
		{Name: "message", Type: "textarea", Label: "Message", Validations: &database.FieldValidations{MaxLength: &maxLen}},
	}
}

func TestFormService_CreateDefaultsActive(t *testing.T) {
	ctx := context.Background()
	svc := NewFormService(databasetest.Open(t), nil, nil)

	form, err := svc.Create(ctx, FormInput{Title: "Contact", Fields: contactFields()})
	require.NoError(t, err)
	require.True(t, form.Active)

	got, err := svc.Get(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, got.Fields, 2)
	require.Equal(t, "message", got.Fields[1].Name)
	require.Equal(t, 120, *got.Fields[1].Validations.MaxLength)
}

func TestFormService_ListDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	svc := NewFormService(databasetest.Open(t), nil, nil)

	inactive := false
	_, err := svc.Create(ctx, FormInput{Title: "Live", Fields: contactFields()})
	require.NoError(t, err)
	_, err = svc.Create(ctx, FormInput{Title: "Retired", Active: &inactive})
	require.NoError(t, err)

	active, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Live", active[0].Title)

	retired, err := svc.List(ctx, store.Filter{"active": false})
	require.NoError(t, err)
	require.Len(t, retired, 1)
	require.Equal(t, "Retired", retired[0].Title)
}

func TestFormService_FieldValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewFormService(databasetest.Open(t), nil, nil)

	_, err := svc.Create(ctx, FormInput{Title: "Bad", Fields: []database.FormField{{Name: "x", Type: "text"}}})
	require.True(t, errcode.Is(err, errcode.KindValidation))
	require.Equal(t, "fields[0].label is required", errcode.PublicMessage(err))

	form, err := svc.Create(ctx, FormInput{Title: "Ok"})
	require.NoError(t, err)

	bad := []database.FormField{{Type: "text", Label: "No name"}}
	_, err = svc.Update(ctx, form.ID, FormPatch{Fields: &bad})
	require.True(t, errcode.Is(err, errcode.KindValidation))

	title := "Renamed"
	updated, err := svc.Update(ctx, form.ID, FormPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.True(t, updated.Active)
}

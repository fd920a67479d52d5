package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/store"
)

type FormService struct {
	*Resource[database.Form]
}

func NewFormService(db *gorm.DB, pub events.Publisher, logger *slog.Logger) *FormService {
	st := store.New(db, "form",
		store.WithFilterable[database.Form]("title", "active"),
	)
	return &FormService{Resource: NewResource(st, "forms", pub, logger)}
}

// FormInput creates a form. Active defaults to true.
type FormInput struct {
	Title       string
	Description string
	Active      *bool
	Fields      []database.FormField
}

type FormPatch struct {
	Title       *string
	Description *string
	Active      *bool
	Fields      *[]database.FormField
}

func (s *FormService) Create(ctx context.Context, in FormInput) (*database.Form, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errcode.Validation("title is required")
	}
	if err := validateFields(in.Fields); err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	rec := &database.Form{
		Title:       in.Title,
		Description: in.Description,
		Active:      active,
		Fields:      datatypes.JSONSlice[database.FormField](nonNil(in.Fields)),
	}
	if err := s.Resource.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns only active forms unless the filter says otherwise.
func (s *FormService) List(ctx context.Context, filter store.Filter, expand ...string) ([]database.Form, error) {
	scoped := make(store.Filter, len(filter)+1)
	for k, v := range filter {
		scoped[k] = v
	}
	if _, ok := scoped["active"]; !ok {
		scoped["active"] = true
	}
	return s.Resource.List(ctx, scoped, expand...)
}

func (s *FormService) Update(ctx context.Context, id uint, p FormPatch) (*database.Form, error) {
	patch := store.Patch{}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, errcode.Validation("title must not be empty")
		}
		patch["title"] = *p.Title
	}
	if p.Description != nil {
		patch["description"] = *p.Description
	}
	if p.Active != nil {
		patch["active"] = *p.Active
	}
	if p.Fields != nil {
		if err := validateFields(*p.Fields); err != nil {
			return nil, err
		}
		patch["fields"] = datatypes.JSONSlice[database.FormField](nonNil(*p.Fields))
	}
	return s.Resource.Update(ctx, id, patch)
}

func validateFields(fields []database.FormField) error {
	for i, f := range fields {
		switch {
		case strings.TrimSpace(f.Name) == "":
			return errcode.Validation(fmt.Sprintf("fields[%d].name is required", i))
		case strings.TrimSpace(f.Type) == "":
			return errcode.Validation(fmt.Sprintf("fields[%d].type is required", i))
		case strings.TrimSpace(f.Label) == "":
			return errcode.Validation(fmt.Sprintf("fields[%d].label is required", i))
		}
		if v := f.Validations; v != nil && v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
			return errcode.Validation(fmt.Sprintf("fields[%d] minLength exceeds maxLength", i))
		}
	}
	return nil
}

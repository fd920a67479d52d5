package api

import (
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/database"
	"cmsadmin/internal/service"
)

type FormHandler struct {
	forms FormService
}

func NewFormHandler(forms FormService) *FormHandler {
	return &FormHandler{forms: forms}
}

var formFilters = map[string]queryFilter{
	"title":  textFilter("title"),
	"active": boolFilter("active"),
}

type formFieldRequest struct {
	Name        string                     `json:"name" binding:"required"`
	Type        string                     `json:"type" binding:"required"`
	Label       string                     `json:"label" binding:"required"`
	Placeholder string                     `json:"placeholder"`
	Options     []string                   `json:"options"`
	Validations *database.FieldValidations `json:"validations"`
}

type createFormRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Active      *bool              `json:"active"`
	Fields      []formFieldRequest `json:"fields" binding:"dive"`
}

type updateFormRequest struct {
	Title       *string             `json:"title" binding:"omitempty,min=1"`
	Description *string             `json:"description"`
	Active      *bool               `json:"active"`
	Fields      *[]formFieldRequest `json:"fields" binding:"omitempty,dive"`
}

func toFormFields(in []formFieldRequest) []database.FormField {
	out := make([]database.FormField, len(in))
	for i, f := range in {
		out[i] = database.FormField{
			Name:        f.Name,
			Type:        f.Type,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Options:     f.Options,
			Validations: f.Validations,
		}
	}
	return out
}

// @Summary Create a form
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body api.createFormRequest true "Request body"
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Router /forms [post]
func (h *FormHandler) Create(c *gin.Context) {
	var req createFormRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	form, err := h.forms.Create(c.Request.Context(), service.FormInput{
		Title:       req.Title,
		Description: req.Description,
		Active:      req.Active,
		Fields:      toFormFields(req.Fields),
	})
	if err != nil {
		fail(c, err)
		return
	}
	envelope.Created(c, "Form created successfully", form)
}

// @Summary Get a form
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /forms/{id} [get]
func (h *FormHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	form, err := h.forms.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", form)
}

// @Summary List forms
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Param title query string false "Exact title"
// @Param active query boolean false "Active flag"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /forms [get]
func (h *FormHandler) List(c *gin.Context) {
	filter, err := parseFilters(c, formFilters)
	if err != nil {
		fail(c, err)
		return
	}
	forms, err := h.forms.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", forms)
}

// @Summary Update a form
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param request body api.updateFormRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /forms/{id} [put]
func (h *FormHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateFormRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	patch := service.FormPatch{
		Title:       req.Title,
		Description: req.Description,
		Active:      req.Active,
	}
	if req.Fields != nil {
		fields := toFormFields(*req.Fields)
		patch.Fields = &fields
	}
	form, err := h.forms.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Form updated successfully", form)
}

// @Summary Delete a form
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /forms/{id} [delete]
func (h *FormHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.forms.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Form deleted successfully", nil)
}

package api

import (
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/service"
)

// SEOHandler serves /seos. Writes are keyed by canonical URL.
type SEOHandler struct {
	seos SEOService
}

func NewSEOHandler(seos SEOService) *SEOHandler {
	return &SEOHandler{seos: seos}
}

var seoFilters = map[string]queryFilter{
	"canonicalUrl": textFilter("canonical_url"),
	"robots":       textFilter("robots"),
	"createdBy":    idFilter("created_by_id"),
}

type upsertSEORequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Keywords     []string `json:"keywords"`
	CanonicalURL string   `json:"canonicalUrl" binding:"required"`
	Robots       string   `json:"robots"`
}

type updateSEORequest struct {
	Title        *string   `json:"title" binding:"omitempty,min=1"`
	Description  *string   `json:"description" binding:"omitempty,min=1"`
	Keywords     *[]string `json:"keywords"`
	CanonicalURL *string   `json:"canonicalUrl" binding:"omitempty,min=1"`
	Robots       *string   `json:"robots"`
}

// Upsert answers 201 when the canonical URL was new and 200 when it overwrote.
// @Summary Create or overwrite SEO by canonical URL
// @Tags seos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body api.upsertSEORequest true "Request body"
// @Success 200 {object} envelope.Body
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Router /seos [post]
func (h *SEOHandler) Upsert(c *gin.Context) {
	who, ok := middleware.IdentityFromContext(c)
	if !ok {
		fail(c, errcode.New(errcode.KindUnauthorized, "authentication required"))
		return
	}
	var req upsertSEORequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rec, created, err := h.seos.Upsert(c.Request.Context(), who, service.SEOInput{
		Title:        req.Title,
		Description:  req.Description,
		Keywords:     req.Keywords,
		CanonicalURL: req.CanonicalURL,
		Robots:       req.Robots,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if created {
		envelope.Created(c, "SEO created successfully", rec)
		return
	}
	envelope.OK(c, "SEO updated successfully", rec)
}

// GetByURL is public. The path segment is the URL-escaped canonical URL.
// @Summary Public SEO lookup
// @Tags seos
// @Produce json
// @Param url path string true "URL-escaped canonical URL"
// @Success 200 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /seos/{url} [get]
func (h *SEOHandler) GetByURL(c *gin.Context) {
	rec, err := h.seos.GetByURL(c.Request.Context(), c.Param("url"))
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", rec)
}

// @Summary Get SEO by id
// @Tags seos
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /seos/id/{id} [get]
func (h *SEOHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := h.seos.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", rec)
}

// @Summary List SEO records
// @Tags seos
// @Produce json
// @Security BearerAuth
// @Param canonicalUrl query string false "Exact canonical URL"
// @Param robots query string false "Robots directive"
// @Param createdBy query integer false "Creator id"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /seos [get]
func (h *SEOHandler) List(c *gin.Context) {
	filter, err := parseFilters(c, seoFilters)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.seos.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", list)
}

// @Summary Update SEO
// @Tags seos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param request body api.updateSEORequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Failure 409 {object} envelope.Body
// @Router /seos/{id} [put]
func (h *SEOHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateSEORequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rec, err := h.seos.Update(c.Request.Context(), id, service.SEOPatch{
		Title:        req.Title,
		Description:  req.Description,
		Keywords:     req.Keywords,
		CanonicalURL: req.CanonicalURL,
		Robots:       req.Robots,
	})
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "SEO updated successfully", rec)
}

// @Summary Delete SEO
// @Tags seos
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /seos/{id} [delete]
func (h *SEOHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.seos.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "SEO deleted successfully", nil)
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/database"
	"cmsadmin/internal/service"
)

// ContentHandler serves /contents. Reads expand seo and media unless ?expand says otherwise.
type ContentHandler struct {
	contents ContentService
}

func NewContentHandler(contents ContentService) *ContentHandler {
	return &ContentHandler{contents: contents}
}

var (
	contentDefaultExpand = []string{service.ExpandSEO, service.ExpandMedia}

	contentFilters = map[string]queryFilter{
		"title":    textFilter("title"),
		"author":   textFilter("author"),
		"category": textFilter("category"),
		"status":   oneOfFilter("status", string(database.ContentDraft), string(database.ContentPublished)),
		"seo":      idFilter("seo_id"),
	}
)

type createContentRequest struct {
	Title       string                 `json:"title" binding:"required"`
	Body        string                 `json:"body" binding:"required"`
	Category    string                 `json:"category"`
	Tags        []string               `json:"tags"`
	Author      string                 `json:"author" binding:"required"`
	Status      database.ContentStatus `json:"status" binding:"omitempty,oneof=draft published"`
	PublishedAt *time.Time             `json:"publishedAt"`
	SEO         *uint                  `json:"seo"`
	Media       []uint                 `json:"media"`
}

type updateContentRequest struct {
	Title       *string                 `json:"title" binding:"omitempty,min=1"`
	Body        *string                 `json:"body" binding:"omitempty,min=1"`
	Category    *string                 `json:"category"`
	Tags        *[]string               `json:"tags"`
	Author      *string                 `json:"author" binding:"omitempty,min=1"`
	Status      *database.ContentStatus `json:"status" binding:"omitempty,oneof=draft published"`
	PublishedAt *time.Time              `json:"publishedAt"`
	SEO         *uint                   `json:"seo"`
	Media       *[]uint                 `json:"media"`
}

// @Summary Create content
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param expand query string false "Comma-separated relations to expand, default seo,media"
// @Param request body api.createContentRequest true "Request body"
// @Success 201 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Router /contents [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req createContentRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rec, err := h.contents.Create(c.Request.Context(), service.ContentInput{
		Title:       req.Title,
		Body:        req.Body,
		Category:    req.Category,
		Tags:        req.Tags,
		Author:      req.Author,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		SEOID:       req.SEO,
		MediaIDs:    req.Media,
	}, parseExpand(c, contentDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.Created(c, "Content created successfully", toContentDTO(rec))
}

// @Summary Get content
// @Tags contents
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param expand query string false "Comma-separated relations to expand, default seo,media"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /contents/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := h.contents.Get(c.Request.Context(), id, parseExpand(c, contentDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", toContentDTO(rec))
}

// @Summary List content
// @Tags contents
// @Produce json
// @Security BearerAuth
// @Param title query string false "Exact title"
// @Param author query string false "Exact author"
// @Param category query string false "Exact category"
// @Param status query string false "draft or published"
// @Param seo query integer false "SEO record id"
// @Param expand query string false "Comma-separated relations to expand, default seo,media"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Router /contents [get]
func (h *ContentHandler) List(c *gin.Context) {
	filter, err := parseFilters(c, contentFilters)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.contents.List(c.Request.Context(), filter, parseExpand(c, contentDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "", toContentDTOs(list))
}

// @Summary Update content
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Param expand query string false "Comma-separated relations to expand, default seo,media"
// @Param request body api.updateContentRequest true "Request body"
// @Success 200 {object} envelope.Body
// @Failure 400 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /contents/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req updateContentRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rec, err := h.contents.Update(c.Request.Context(), id, service.ContentPatch{
		Title:       req.Title,
		Body:        req.Body,
		Category:    req.Category,
		Tags:        req.Tags,
		Author:      req.Author,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
		SEOID:       req.SEO,
		MediaIDs:    req.Media,
	}, parseExpand(c, contentDefaultExpand...)...)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Content updated successfully", toContentDTO(rec))
}

// @Summary Delete content
// @Tags contents
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Record id"
// @Success 200 {object} envelope.Body
// @Failure 401 {object} envelope.Body
// @Failure 403 {object} envelope.Body
// @Failure 404 {object} envelope.Body
// @Router /contents/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.contents.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, "Content deleted successfully", nil)
}

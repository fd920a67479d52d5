package api

import (
	"time"

	"cmsadmin/internal/database"
)

// contentDTO is the wire form of a content entry. seo and media hold either
// the stored ids or the expanded records.
type contentDTO struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Category    string                 `json:"category,omitempty"`
	Tags        []string               `json:"tags"`
	Author      string                 `json:"author"`
	Status      database.ContentStatus `json:"status"`
	PublishedAt *time.Time             `json:"publishedAt,omitempty"`
	SEO         any                    `json:"seo"`
	Media       any                    `json:"media"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func toContentDTO(c *database.Content) contentDTO {
	dto := contentDTO{
		ID:          c.ID,
		Title:       c.Title,
		Body:        c.Body,
		Category:    c.Category,
		Tags:        c.Tags,
		Author:      c.Author,
		Status:      c.Status,
		PublishedAt: c.PublishedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}

	switch {
	case c.SEO != nil:
		dto.SEO = c.SEO
	case c.SEOID != nil:
		dto.SEO = *c.SEOID
	}

	if c.Media != nil {
		media := make([]mediaDTO, len(c.Media))
		for i := range c.Media {
			media[i] = toMediaDTO(&c.Media[i])
		}
		dto.Media = media
	} else {
		ids := []uint(c.MediaIDs)
		if ids == nil {
			ids = []uint{}
		}
		dto.Media = ids
	}
	return dto
}

func toContentDTOs(list []database.Content) []contentDTO {
	out := make([]contentDTO, len(list))
	for i := range list {
		out[i] = toContentDTO(&list[i])
	}
	return out
}

// mediaDTO is the wire form of a media record. createdBy is the user id or the expanded user.
type mediaDTO struct {
	ID         uint      `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `json:"fileType"`
	StorageID  string    `json:"storageId"`
	Size       int64     `json:"size"`
	CreatedBy  any       `json:"createdBy"`
	UploadedAt time.Time `json:"uploadedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toMediaDTO(m *database.Media) mediaDTO {
	dto := mediaDTO{
		ID:         m.ID,
		FileName:   m.FileName,
		FileURL:    m.FileURL,
		FileType:   m.FileType,
		StorageID:  m.StorageKey,
		Size:       m.Size,
		CreatedBy:  m.CreatedByID,
		UploadedAt: m.UploadedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.CreatedBy != nil {
		dto.CreatedBy = m.CreatedBy
	}
	return dto
}

func toMediaDTOs(list []database.Media) []mediaDTO {
	out := make([]mediaDTO, len(list))
	for i := range list {
		out[i] = toMediaDTO(&list[i])
	}
	return out
}

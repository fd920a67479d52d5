package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Ref is a reference that the server sends either as a bare id or, when
// expanded, as the full record.
type Ref[T any] struct {
	ID    uint
	Value *T
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		var id uint
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode reference id: %w", err)
		}
		*r = Ref[T]{ID: id}
		return nil
	}
	var head struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	value := new(T)
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*r = Ref[T]{ID: head.ID, Value: value}
	return nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	if r.ID == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

type User struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type SEO struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Keywords     []string  `json:"keywords"`
	CanonicalURL string    `json:"canonicalUrl"`
	Robots       string    `json:"robots"`
	CreatedBy    uint      `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Media struct {
	ID         uint      `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `json:"fileType"`
	StorageID  string    `json:"storageId"`
	Size       int64     `json:"size"`
	CreatedBy  Ref[User] `json:"createdBy"`
	UploadedAt time.Time `json:"uploadedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Content struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	Author      string       `json:"author"`
	Status      string       `json:"status"`
	PublishedAt *time.Time   `json:"publishedAt"`
	SEO         Ref[SEO]     `json:"seo"`
	Media       []Ref[Media] `json:"media"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type FieldValidations struct {
	Required  *bool  `json:"required,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	Regex     string `json:"regex,omitempty"`
}

type FormField struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty"`
	Validations *FieldValidations `json:"validations,omitempty"`
}

type Form struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Active      bool        `json:"active"`
	Fields      []FormField `json:"fields"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// SEOInput is the body of an SEO upsert.
type SEOInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Keywords     []string `json:"keywords,omitempty"`
	CanonicalURL string   `json:"canonicalUrl"`
	Robots       string   `json:"robots,omitempty"`
}

// PresignedLink is a time-limited media download URL.
type PresignedLink struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

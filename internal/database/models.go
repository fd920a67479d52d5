package database

import (
	"time"

	"gorm.io/datatypes"
)

// Role is the coarse permission level carried in access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Base holds the store-assigned identity and timestamps shared by every entity.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Base) PrimaryKey() uint { return b.ID }

// User is an account that can sign in to the admin.
type User struct {
	Base
	Name               string `gorm:"size:128;not null" json:"name"`
	Email              string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash       string `gorm:"size:255;not null" json:"-"`
	Role               Role   `gorm:"size:16;not null;index" json:"role"`
	MustChangePassword bool   `gorm:"not null;default:false" json:"mustChangePassword"`
}

func (User) TableName() string { return "users" }

// ContentStatus is the publishing state of a content entry.
type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentPublished ContentStatus = "published"
)

// Valid reports whether s is draft or published.
func (s ContentStatus) Valid() bool {
	return s == ContentDraft || s == ContentPublished
}

// Content is an article-like entry. SEO and Media are stored as bare ids and
// only filled in when a read asks for them to be expanded.
type Content struct {
	Base
	Title       string                      `gorm:"size:255;not null"`
	Body        string                      `gorm:"type:text;not null"`
	Category    string                      `gorm:"size:128;index"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags"`
	Author      string                      `gorm:"size:128;not null;index"`
	Status      ContentStatus               `gorm:"size:16;not null;index"`
	PublishedAt *time.Time                  `gorm:"index"`
	SEOID       *uint                       `gorm:"column:seo_id;index"`
	MediaIDs    datatypes.JSONSlice[uint]   `gorm:"column:media_ids"`

	SEO   *SEO    `gorm:"-"`
	Media []Media `gorm:"-"`
}

func (Content) TableName() string { return "contents" }

// FieldValidations are the client-side rules attached to a form field.
type FieldValidations struct {
	Required  *bool  `json:"required,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	Regex     string `json:"regex,omitempty"`
}

// FormField is one embedded field definition of a Form.
type FormField struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty"`
	Validations *FieldValidations `json:"validations,omitempty"`
}

// Form is a form definition with ordered, embedded fields.
type Form struct {
	Base
	Title       string                         `gorm:"size:255;not null" json:"title"`
	Description string                         `gorm:"type:text" json:"description,omitempty"`
	Active      bool                           `gorm:"not null;index" json:"active"`
	Fields      datatypes.JSONSlice[FormField] `json:"fields"`
}

func (Form) TableName() string { return "forms" }

// Media is the local record of a blob held by the object store.
type Media struct {
	Base
	FileName    string    `gorm:"size:255;not null"`
	FileURL     string    `gorm:"column:file_url;size:1024;not null"`
	FileType    string    `gorm:"size:128;not null"`
	StorageKey  string    `gorm:"column:storage_key;uniqueIndex;size:512;not null"`
	Size        int64     `gorm:"not null;default:0"`
	CreatedByID uint      `gorm:"column:created_by_id;index;not null"`
	UploadedAt  time.Time `gorm:"not null"`

	CreatedBy *User `gorm:"-"`
}

func (Media) TableName() string { return "media" }

// DefaultRobots is applied when an SEO record is saved without a robots directive.
const DefaultRobots = "index, follow"

// SEO holds page metadata keyed by its canonical URL.
type SEO struct {
	Base
	Title        string                      `gorm:"size:255;not null" json:"title"`
	Description  string                      `gorm:"type:text;not null" json:"description"`
	Keywords     datatypes.JSONSlice[string] `json:"keywords"`
	CanonicalURL string                      `gorm:"column:canonical_url;uniqueIndex;size:1024;not null" json:"canonicalUrl"`
	Robots       string                      `gorm:"size:64;not null" json:"robots"`
	CreatedByID  uint                        `gorm:"column:created_by_id;index" json:"createdBy"`
}

func (SEO) TableName() string { return "seos" }

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssetType discriminates how an asset entered the library.
type AssetType string

const (
	AssetLink       AssetType = "link"
	AssetFile       AssetType = "file"
	AssetWhiteboard AssetType = "whiteboard"
)

// Preview statuses reported by the external preview service.
const (
	PreviewPending string = "pending"
	PreviewDone    string = "done"
	PreviewError   string = "error"
)

// Asset is an entry in the course asset library. Users carries authorship;
// whiteboard-type assets keep every contributor, which is what the
// co-creation edges of the interaction graph are derived from.
type Asset struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CourseID        uint              `gorm:"not null;index" json:"course_id"`
	Type            AssetType         `gorm:"size:16;not null" json:"type"`
	Title           string            `gorm:"size:255;not null" json:"title"`
	URL             string            `gorm:"size:2048" json:"url"`
	Description     string            `gorm:"type:text" json:"description"`
	MimeType        string            `gorm:"size:128" json:"mime_type"`
	ThumbnailURL    string            `gorm:"size:2048" json:"thumbnail_url"`
	ImageURL        string            `gorm:"size:2048" json:"image_url"`
	PdfURL          string            `gorm:"size:2048" json:"pdf_url"`
	PreviewStatus   string            `gorm:"size:16;not null;default:'pending'" json:"preview_status"`
	PreviewMetadata datatypes.JSONMap `gorm:"type:json" json:"preview_metadata"`
	Users           []CourseUser      `gorm:"many2many:asset_users" json:"users,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

// AssetAuthorship is one (asset, user) authorship row, the unit the
// co-creation pairing works on.
type AssetAuthorship struct {
	AssetID uint
	UserID  uint
}

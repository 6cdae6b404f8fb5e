package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Whiteboard is a shared collaborative canvas scoped to one course. Users
// are the members allowed to edit it; exporting snapshots them as the
// authorship of the resulting whiteboard asset.
type Whiteboard struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Users     []CourseUser   `gorm:"many2many:whiteboard_users" json:"users,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// WhiteboardElement is one drawable element on a whiteboard. UID is the
// client-side element identifier; AssetID is set when the element embeds a
// library asset.
type WhiteboardElement struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	WhiteboardID uint           `gorm:"not null;index;uniqueIndex:idx_whiteboard_elements_uid" json:"whiteboard_id"`
	UID          string         `gorm:"size:255;not null;uniqueIndex:idx_whiteboard_elements_uid" json:"uid"`
	AssetID      *uint          `json:"asset_id"`
	Element      datatypes.JSON `gorm:"type:json;not null" json:"element"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

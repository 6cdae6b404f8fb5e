package models

import "time"

// Comment is a comment or reply on a library asset. Bodies are sanitized
// before persistence.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"not null;index" json:"asset_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

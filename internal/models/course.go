package models

import "time"

// Course mirrors a Canvas course site that has the engagement tools installed.
type Course struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	CanvasCourseID           uint      `gorm:"not null;uniqueIndex" json:"canvas_course_id"`
	Name                     string    `gorm:"size:255;not null" json:"name"`
	Timezone                 string    `gorm:"size:64;default:'UTC'" json:"timezone"`
	ProtectsAssetsPerSection bool      `gorm:"not null;default:false" json:"protects_assets_per_section"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

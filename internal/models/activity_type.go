package models

import "time"

// ActivityTypeConfig is one per-course scoring rule: whether an activity kind
// is enabled and how many points it is worth. Kinds without a configuration
// row are treated as disabled. Points may be negative.
type ActivityTypeConfig struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CourseID  uint         `gorm:"not null;uniqueIndex:idx_activity_types_course_kind" json:"course_id"`
	Kind      ActivityKind `gorm:"column:kind;size:48;not null;uniqueIndex:idx_activity_types_course_kind" json:"kind"`
	Enabled   bool         `gorm:"not null;default:false" json:"enabled"`
	Points    int          `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName pins the table name used by the scoring replay queries.
func (ActivityTypeConfig) TableName() string {
	return "activity_types"
}

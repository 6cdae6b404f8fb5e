package models

import (
	"time"

	"gorm.io/datatypes"
)

// Course roles that count as students for engagement analytics.
const (
	RoleLearner string = "Learner"
	RoleStudent string = "Student"
	RoleTeacher string = "Teacher"
	RoleAdmin   string = "Admin"
)

// Enrollment states reported by the course directory.
const (
	EnrollmentActive   string = "active"
	EnrollmentInactive string = "inactive"
)

// CourseUser is a course-scoped enrollment record. Points is a derived cache
// maintained exclusively by the points service; it is always reproducible by
// replaying the activity log.
type CourseUser struct {
	ID              uint                          `gorm:"primaryKey" json:"id"`
	CourseID        uint                          `gorm:"not null;index" json:"course_id"`
	CanvasUserID    uint                          `gorm:"not null;index" json:"canvas_user_id"`
	FullName        string                        `gorm:"size:255;not null" json:"full_name"`
	Image           string                        `gorm:"size:512" json:"image"`
	Role            string                        `gorm:"size:32;not null;default:'Learner'" json:"role"`
	EnrollmentState string                        `gorm:"size:16;not null;default:'active'" json:"enrollment_state"`
	Sections        datatypes.JSONSlice[string]   `gorm:"type:json" json:"sections"`
	Points          int                           `gorm:"not null;default:0" json:"points"`
	LastActivityAt  *time.Time                    `json:"last_activity_at"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// IsStudent reports whether the user counts as a learner for interaction
// analytics.
func (u CourseUser) IsStudent() bool {
	return u.Role == RoleLearner || u.Role == RoleStudent
}

// HasActiveEnrollment reports whether the user is still enrolled.
func (u CourseUser) HasActiveEnrollment() bool {
	return u.EnrollmentState != EnrollmentInactive
}

// SharesSection reports whether the user belongs to at least one of the given
// sections. An empty filter matches everyone.
func (u CourseUser) SharesSection(sections []string) bool {
	if len(sections) == 0 {
		return true
	}
	for _, want := range sections {
		for _, have := range u.Sections {
			if have == want {
				return true
			}
		}
	}
	return false
}

package dto

import (
	"time"

	"github.com/campuskit/engage-api/internal/models"
)

// DevAuthLoginRequest authenticates a user through the developer login gate.
type DevAuthLoginRequest struct {
	UserID   uint   `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileResponse serializes the authenticated user.
type ProfileResponse struct {
	ID              uint       `json:"id"`
	CourseID        uint       `json:"course_id"`
	CanvasUserID    uint       `json:"canvas_user_id"`
	FullName        string     `json:"full_name"`
	Image           string     `json:"image,omitempty"`
	Role            string     `json:"role"`
	EnrollmentState string     `json:"enrollment_state"`
	Sections        []string   `json:"sections"`
	Points          int        `json:"points"`
	LastActivityAt  *time.Time `json:"last_activity_at"`
}

// NewProfileResponse maps a course user to its API shape.
func NewProfileResponse(user models.CourseUser) ProfileResponse {
	return ProfileResponse{
		ID:              user.ID,
		CourseID:        user.CourseID,
		CanvasUserID:    user.CanvasUserID,
		FullName:        user.FullName,
		Image:           user.Image,
		Role:            user.Role,
		EnrollmentState: user.EnrollmentState,
		Sections:        []string(user.Sections),
		Points:          user.Points,
		LastActivityAt:  user.LastActivityAt,
	}
}

// AuthResponse carries the issued token together with the profile.
type AuthResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

// PreviewCallbackRequest is posted by the preview generation service once it
// has processed an asset.
type PreviewCallbackRequest struct {
	ID        uint   `json:"id" form:"id" validate:"required"`
	Status    string `json:"status" form:"status" validate:"required,oneof=pending done error"`
	Thumbnail string `json:"thumbnail" form:"thumbnail"`
	Image     string `json:"image" form:"image"`
	Pdf       string `json:"pdf" form:"pdf"`
	Metadata  string `json:"metadata" form:"metadata"`
}

package dto

import (
	"time"

	"github.com/campuskit/engage-api/internal/models"
)

// AssetCreateRequest adds a link asset to the course library.
type AssetCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"omitempty,max=8192"`
}

// AssetResponse serializes a library asset.
type AssetResponse struct {
	ID            uint       `json:"id"`
	CourseID      uint       `json:"course_id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	URL           string     `json:"url,omitempty"`
	Description   string     `json:"description,omitempty"`
	MimeType      string     `json:"mime_type,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	PdfURL        string     `json:"pdf_url,omitempty"`
	PreviewStatus string     `json:"preview_status"`
	UserIDs       []uint     `json:"user_ids"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`

	// Comments are populated on single-asset reads only.
	Comments []CommentResponse `json:"comments,omitempty"`
}

// NewAssetResponse maps a model to its API shape.
func NewAssetResponse(asset models.Asset) AssetResponse {
	userIDs := make([]uint, 0, len(asset.Users))
	for _, user := range asset.Users {
		userIDs = append(userIDs, user.ID)
	}
	response := AssetResponse{
		ID:            asset.ID,
		CourseID:      asset.CourseID,
		Type:          string(asset.Type),
		Title:         asset.Title,
		URL:           asset.URL,
		Description:   asset.Description,
		MimeType:      asset.MimeType,
		ThumbnailURL:  asset.ThumbnailURL,
		ImageURL:      asset.ImageURL,
		PdfURL:        asset.PdfURL,
		PreviewStatus: asset.PreviewStatus,
		UserIDs:       userIDs,
		CreatedAt:     asset.CreatedAt,
		UpdatedAt:     asset.UpdatedAt,
	}
	if asset.DeletedAt.Valid {
		deleted := asset.DeletedAt.Time
		response.DeletedAt = &deleted
	}
	return response
}

// CommentCreateRequest posts a comment or reply on an asset.
type CommentCreateRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=16384"`
	ParentID *uint  `json:"parent_id"`
}

// CommentResponse serializes an asset comment.
type CommentResponse struct {
	ID        uint      `json:"id"`
	AssetID   uint      `json:"asset_id"`
	UserID    uint      `json:"user_id"`
	ParentID  *uint     `json:"parent_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a model to its API shape.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		AssetID:   comment.AssetID,
		UserID:    comment.UserID,
		ParentID:  comment.ParentID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/campuskit/engage-api/internal/models"
)

// WhiteboardCreateRequest starts a new shared whiteboard.
type WhiteboardCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	UserIDs []uint `json:"user_ids" validate:"omitempty,dive,required"`
}

// WhiteboardResponse serializes a whiteboard. Elements are populated on
// single-whiteboard reads only.
type WhiteboardResponse struct {
	ID        uint              `json:"id"`
	CourseID  uint              `json:"course_id"`
	Title     string            `json:"title"`
	UserIDs   []uint            `json:"user_ids"`
	Elements  []ElementResponse `json:"elements,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewWhiteboardResponse maps a model to its API shape.
func NewWhiteboardResponse(whiteboard models.Whiteboard) WhiteboardResponse {
	userIDs := make([]uint, 0, len(whiteboard.Users))
	for _, user := range whiteboard.Users {
		userIDs = append(userIDs, user.ID)
	}
	return WhiteboardResponse{
		ID:        whiteboard.ID,
		CourseID:  whiteboard.CourseID,
		Title:     whiteboard.Title,
		UserIDs:   userIDs,
		CreatedAt: whiteboard.CreatedAt,
		UpdatedAt: whiteboard.UpdatedAt,
	}
}

// ElementCreateRequest places one element on a whiteboard.
type ElementCreateRequest struct {
	UID     string          `json:"uid" validate:"required,min=1,max=255"`
	AssetID *uint           `json:"asset_id"`
	Element json.RawMessage `json:"element" validate:"required"`
}

// ElementResponse serializes a whiteboard element.
type ElementResponse struct {
	ID           uint            `json:"id"`
	WhiteboardID uint            `json:"whiteboard_id"`
	UID          string          `json:"uid"`
	AssetID      *uint           `json:"asset_id"`
	Element      json.RawMessage `json:"element"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewElementResponse maps a model to its API shape.
func NewElementResponse(element models.WhiteboardElement) ElementResponse {
	return ElementResponse{
		ID:           element.ID,
		WhiteboardID: element.WhiteboardID,
		UID:          element.UID,
		AssetID:      element.AssetID,
		Element:      json.RawMessage(element.Element),
		CreatedAt:    element.CreatedAt,
	}
}

// WhiteboardExportRequest snapshots a whiteboard into the asset library.
type WhiteboardExportRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

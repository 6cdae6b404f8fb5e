package dto

import (
	"time"

	"github.com/campuskit/engage-api/internal/models"
)

// ActivityResponse serializes one activity log entry.
type ActivityResponse struct {
	ID           uint                   `json:"id"`
	Kind         string                 `json:"kind"`
	CourseID     uint                   `json:"course_id"`
	UserID       uint                   `json:"user_id"`
	ObjectType   string                 `json:"object_type"`
	ObjectID     *uint                  `json:"object_id"`
	AssetID      *uint                  `json:"asset_id"`
	ActorID      *uint                  `json:"actor_id"`
	ReciprocalID *uint                  `json:"reciprocal_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
}

// NewActivityResponse maps a model to its API shape.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:           activity.ID,
		Kind:         string(activity.Kind),
		CourseID:     activity.CourseID,
		UserID:       activity.UserID,
		ObjectType:   string(activity.ObjectType),
		ObjectID:     activity.ObjectID,
		AssetID:      activity.AssetID,
		ActorID:      activity.ActorID,
		ReciprocalID: activity.ReciprocalID,
		Metadata:     map[string]interface{}(activity.Metadata),
		CreatedAt:    activity.CreatedAt,
	}
}

// FeedBucket splits activities by how social they are.
type FeedBucket struct {
	Engagements  []ActivityResponse `json:"engagements"`
	Interactions []ActivityResponse `json:"interactions"`
	Creations    []ActivityResponse `json:"creations"`
}

// ActivityFeedResponse groups a user's activities into things they did and
// the impact others had on their work.
type ActivityFeedResponse struct {
	Actions FeedBucket `json:"actions"`
	Impacts FeedBucket `json:"impacts"`
}

package dto

import (
	"time"

	"github.com/campuskit/engage-api/internal/models"
)

// ActivityConfigEntry is one scoring rule of a course configuration.
type ActivityConfigEntry struct {
	Kind    string `json:"kind" validate:"required"`
	Enabled bool   `json:"enabled"`
	Points  int    `json:"points"`
}

// ActivityConfigResponse lists the scoring rules of a course.
type ActivityConfigResponse struct {
	CourseID uint                  `json:"course_id"`
	Entries  []ActivityConfigEntry `json:"entries"`
}

// NewActivityConfigResponse maps configuration rows to the API shape.
func NewActivityConfigResponse(courseID uint, entries []models.ActivityTypeConfig) ActivityConfigResponse {
	response := ActivityConfigResponse{CourseID: courseID, Entries: make([]ActivityConfigEntry, 0, len(entries))}
	for _, entry := range entries {
		response.Entries = append(response.Entries, ActivityConfigEntry{
			Kind:    string(entry.Kind),
			Enabled: entry.Enabled,
			Points:  entry.Points,
		})
	}
	return response
}

// ActivityConfigUpdateRequest replaces the scoring configuration of a course.
type ActivityConfigUpdateRequest struct {
	Entries []ActivityConfigEntry `json:"entries" validate:"required,min=1,dive"`
}

// RecalculateRequest optionally restricts a recompute to a set of users.
type RecalculateRequest struct {
	UserIDs []uint `json:"user_ids"`
}

// InteractionEdge is one weighted directed edge of the interaction graph.
type InteractionEdge struct {
	Type   string `json:"type"`
	Source uint   `json:"source"`
	Target uint   `json:"target"`
	Count  int    `json:"count"`
}

// InteractionGraphResponse wraps the edge list for a course.
type InteractionGraphResponse struct {
	CourseID uint              `json:"course_id"`
	Edges    []InteractionEdge `json:"edges"`
}

// LeaderboardEntry is one row of the course engagement leaderboard.
type LeaderboardEntry struct {
	UserID         uint       `json:"user_id"`
	FullName       string     `json:"full_name"`
	Image          string     `json:"image,omitempty"`
	Points         int        `json:"points"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

// LeaderboardResponse is the cached per-course points ranking.
type LeaderboardResponse struct {
	CourseID    uint               `json:"course_id"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
	CacheHit    bool               `json:"cache_hit"`
}

// ActivityReport is the chronological engagement export of a course. Rows
// carry a per-user running total as of each row, not the final aggregate.
type ActivityReport struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

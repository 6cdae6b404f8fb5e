package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
)

// EdgeCoCreateWhiteboard is the synthetic edge type derived from whiteboard
// co-authorship rather than from the activity log.
const EdgeCoCreateWhiteboard = "co_create_whiteboard"

// InteractionGraphService derives the weighted directed graph of
// user-to-user engagement for a course.
type InteractionGraphService interface {
	Build(ctx context.Context, courseID uint, sections []string) (dto.InteractionGraphResponse, error)
}

type interactionGraphService struct {
	users      repository.CourseUserRepository
	activities repository.ActivityRepository
	assets     repository.AssetRepository
	logger     zerolog.Logger
}

// NewInteractionGraphService constructs the graph builder.
func NewInteractionGraphService(users repository.CourseUserRepository, activities repository.ActivityRepository, assets repository.AssetRepository, logger zerolog.Logger) InteractionGraphService {
	return &interactionGraphService{
		users:      users,
		activities: activities,
		assets:     assets,
		logger:     logger.With().Str("component", "interaction_graph_service").Logger(),
	}
}

type edgeKey struct {
	edgeType string
	source   uint
	target   uint
}

// Build merges two edge sources: reciprocal activity pairs grouped by
// (kind, actor, subject), and whiteboard co-authorship pairs ordered by user
// id so a pair is never emitted twice or reversed. Only active learners take
// part; a section filter keeps users sharing at least one section with it.
func (s *interactionGraphService) Build(ctx context.Context, courseID uint, sections []string) (dto.InteractionGraphResponse, error) {
	start := time.Now()
	defer func() {
		observability.InteractionGraphDuration().Observe(time.Since(start).Seconds())
	}()

	users, err := s.users.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.InteractionGraphResponse{}, fmt.Errorf("load course users: %w", err)
	}

	eligible := make(map[uint]bool, len(users))
	for _, user := range users {
		if user.IsStudent() && user.HasActiveEnrollment() && user.SharesSection(sections) {
			eligible[user.ID] = true
		}
	}

	counts := make(map[edgeKey]int)

	activities, err := s.activities.ListReciprocal(ctx, courseID)
	if err != nil {
		return dto.InteractionGraphResponse{}, fmt.Errorf("load reciprocal activities: %w", err)
	}
	for _, activity := range activities {
		if activity.ActorID == nil {
			continue
		}
		if !eligible[activity.UserID] || !eligible[*activity.ActorID] {
			continue
		}
		counts[edgeKey{
			edgeType: string(activity.Kind),
			source:   *activity.ActorID,
			target:   activity.UserID,
		}]++
	}

	if err := s.addCoCreationEdges(ctx, courseID, eligible, counts); err != nil {
		return dto.InteractionGraphResponse{}, err
	}

	edges := make([]dto.InteractionEdge, 0, len(counts))
	for key, count := range counts {
		edges = append(edges, dto.InteractionEdge{
			Type:   key.edgeType,
			Source: key.source,
			Target: key.target,
			Count:  count,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Type != edges[j].Type {
			return edges[i].Type < edges[j].Type
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return dto.InteractionGraphResponse{CourseID: courseID, Edges: edges}, nil
}

// addCoCreationEdges counts, per unordered pair of distinct contributors
// (u1 < u2), the whiteboard assets both co-authored.
func (s *interactionGraphService) addCoCreationEdges(ctx context.Context, courseID uint, eligible map[uint]bool, counts map[edgeKey]int) error {
	authorships, err := s.assets.ListWhiteboardAuthorships(ctx, courseID)
	if err != nil {
		return fmt.Errorf("load whiteboard authorships: %w", err)
	}

	byAsset := make(map[uint][]uint)
	for _, row := range authorships {
		if !eligible[row.UserID] {
			continue
		}
		byAsset[row.AssetID] = append(byAsset[row.AssetID], row.UserID)
	}

	for _, contributors := range byAsset {
		sort.Slice(contributors, func(i, j int) bool { return contributors[i] < contributors[j] })
		contributors = dedupeIDs(contributors)
		for i := 0; i < len(contributors); i++ {
			for j := i + 1; j < len(contributors); j++ {
				counts[edgeKey{
					edgeType: EdgeCoCreateWhiteboard,
					source:   contributors[i],
					target:   contributors[j],
				}]++
			}
		}
	}
	return nil
}

func dedupeIDs(sorted []uint) []uint {
	result := sorted[:0]
	var previous uint
	for i, id := range sorted {
		if i == 0 || id != previous {
			result = append(result, id)
		}
		previous = id
	}
	return result
}

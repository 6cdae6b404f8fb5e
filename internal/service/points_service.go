package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
)

// PointsService maintains the derived per-user engagement point totals. A
// recompute is always a full replay of the affected users' activities through
// the course configuration: configuration edits apply retroactively, so an
// incremental delta would produce wrong totals after an admin toggles a rule.
type PointsService interface {
	Recalculate(ctx context.Context, courseID uint, userIDs []uint) error
}

type pointsService struct {
	users      repository.CourseUserRepository
	activities repository.ActivityRepository
	types      repository.ActivityTypeRepository
	logger     zerolog.Logger
}

// NewPointsService constructs the points aggregator.
func NewPointsService(users repository.CourseUserRepository, activities repository.ActivityRepository, types repository.ActivityTypeRepository, logger zerolog.Logger) PointsService {
	return &pointsService{
		users:      users,
		activities: activities,
		types:      types,
		logger:     logger.With().Str("component", "points_service").Logger(),
	}
}

// Recalculate replaces the point totals of the given users. A nil userIDs
// slice covers the whole course; an explicit empty slice is a no-op. Calling
// it twice with no intervening activity yields identical totals, and users
// with no qualifying activities end up at zero rather than keeping a stale
// value.
func (s *pointsService) Recalculate(ctx context.Context, courseID uint, userIDs []uint) error {
	if courseID == 0 {
		return nil
	}
	if userIDs != nil && len(userIDs) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecalculateDuration().Observe(time.Since(start).Seconds())
	}()

	var (
		users []models.CourseUser
		err   error
	)
	if userIDs == nil {
		users, err = s.users.ListByCourse(ctx, courseID)
	} else {
		users, err = s.users.ListByIDs(ctx, courseID, userIDs)
	}
	if err != nil {
		return fmt.Errorf("load users for recompute: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	scoring, err := s.scoringRules(ctx, courseID)
	if err != nil {
		return err
	}

	activities, err := s.activities.ListForScoring(ctx, courseID, userIDs)
	if err != nil {
		return fmt.Errorf("load activities for recompute: %w", err)
	}

	totals := make(map[uint]int, len(users))
	for _, activity := range activities {
		rule, ok := scoring[activity.Kind]
		if !ok || !rule.Enabled {
			continue
		}
		totals[activity.UserID] += rule.Points
	}

	for _, user := range users {
		if err := s.users.UpdatePoints(ctx, user.ID, totals[user.ID]); err != nil {
			return fmt.Errorf("update points for user %d: %w", user.ID, err)
		}
	}

	s.logger.Debug().
		Uint("course_id", courseID).
		Int("users", len(users)).
		Int("activities", len(activities)).
		Msg("recalculated engagement points")

	return nil
}

func (s *pointsService) scoringRules(ctx context.Context, courseID uint) (map[models.ActivityKind]models.ActivityTypeConfig, error) {
	entries, err := s.types.Configuration(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load activity type configuration: %w", err)
	}
	if len(entries) == 0 {
		// Missing configuration means every kind is disabled, not an
		// error. Totals degrade to zero.
		s.logger.Warn().Uint("course_id", courseID).Msg("no activity type configuration for course")
	}
	rules := make(map[models.ActivityKind]models.ActivityTypeConfig, len(entries))
	for _, entry := range entries {
		rules[entry.Kind] = entry
	}
	return rules, nil
}

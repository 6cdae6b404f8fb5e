package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
)

// ActivityConfigService reads and replaces the per-course scoring rules.
// Replacing the configuration triggers a full-course recompute, since rule
// edits apply retroactively to the whole activity log.
type ActivityConfigService interface {
	Configuration(ctx context.Context, courseID uint) (dto.ActivityConfigResponse, error)
	Update(ctx context.Context, courseID uint, req dto.ActivityConfigUpdateRequest) (dto.ActivityConfigResponse, error)
}

type activityConfigService struct {
	types     repository.ActivityTypeRepository
	points    PointsService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityConfigService constructs the configuration service.
func NewActivityConfigService(types repository.ActivityTypeRepository, points PointsService, validate *validator.Validate, logger zerolog.Logger) ActivityConfigService {
	return &activityConfigService{
		types:     types,
		points:    points,
		validator: validate,
		logger:    logger.With().Str("component", "activity_config_service").Logger(),
	}
}

func (s *activityConfigService) Configuration(ctx context.Context, courseID uint) (dto.ActivityConfigResponse, error) {
	entries, err := s.types.Configuration(ctx, courseID)
	if err != nil {
		return dto.ActivityConfigResponse{}, fmt.Errorf("load activity type configuration: %w", err)
	}
	return dto.NewActivityConfigResponse(courseID, entries), nil
}

func (s *activityConfigService) Update(ctx context.Context, courseID uint, req dto.ActivityConfigUpdateRequest) (dto.ActivityConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityConfigResponse{}, err
	}

	known := make(map[models.ActivityKind]struct{})
	for _, kind := range models.AllKinds() {
		known[kind] = struct{}{}
	}

	entries := make([]models.ActivityTypeConfig, 0, len(req.Entries))
	seen := make(map[models.ActivityKind]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		kind := models.ActivityKind(entry.Kind)
		if _, ok := known[kind]; !ok {
			return dto.ActivityConfigResponse{}, fmt.Errorf("unknown activity kind %q: %w", entry.Kind, ErrInvalidReference)
		}
		if _, duplicate := seen[kind]; duplicate {
			return dto.ActivityConfigResponse{}, fmt.Errorf("duplicate activity kind %q: %w", entry.Kind, ErrInvalidReference)
		}
		seen[kind] = struct{}{}
		entries = append(entries, models.ActivityTypeConfig{
			CourseID: courseID,
			Kind:     kind,
			Enabled:  entry.Enabled,
			Points:   entry.Points,
		})
	}

	if err := s.types.Replace(ctx, courseID, entries); err != nil {
		return dto.ActivityConfigResponse{}, fmt.Errorf("replace activity type configuration: %w", err)
	}

	if err := s.points.Recalculate(ctx, courseID, nil); err != nil {
		return dto.ActivityConfigResponse{}, fmt.Errorf("recalculate points after configuration change: %w", err)
	}

	s.logger.Info().Uint("course_id", courseID).Int("entries", len(entries)).Msg("activity scoring configuration replaced")
	return s.Configuration(ctx, courseID)
}

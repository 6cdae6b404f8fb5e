package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
)

// ActivityInput describes one engagement action to record. UserID is the
// subject credited for the activity; ActorID is the other party, required
// for kinds that generate a reciprocal counterpart.
type ActivityInput struct {
	Kind       models.ActivityKind
	CourseID   uint
	UserID     uint
	ObjectType models.ObjectType
	ObjectID   *uint
	AssetID    *uint
	ActorID    *uint
	Metadata   map[string]interface{}
}

// ActivityPublisher receives every appended activity for realtime fan-out.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, activity models.Activity)
}

// ActivityService is the append-only engagement log facade: atomic
// reciprocal-pair insertion, idempotent creation, object-scoped deletion and
// the per-user feed. Every mutation triggers a points recompute scoped to
// the affected subject users.
type ActivityService interface {
	Append(ctx context.Context, input ActivityInput) (models.Activity, error)
	AppendUnlessExists(ctx context.Context, input ActivityInput) (models.Activity, bool, error)
	DeleteByObject(ctx context.Context, objectType models.ObjectType, objectID, courseID uint, userIDs []uint) error
	DeleteMatching(ctx context.Context, input ActivityInput) error
	FindByObject(ctx context.Context, objectType models.ObjectType, objectID uint) ([]models.Activity, error)
	UserFeed(ctx context.Context, userID uint) (dto.ActivityFeedResponse, error)
	CourseLastActivity(ctx context.Context, courseID uint) (*time.Time, error)
}

type activityService struct {
	activities repository.ActivityRepository
	users      repository.CourseUserRepository
	points     PointsService
	publisher  ActivityPublisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewActivityService constructs the activity log service. The publisher may
// be nil when realtime streaming is not configured.
func NewActivityService(activities repository.ActivityRepository, users repository.CourseUserRepository, points PointsService, publisher ActivityPublisher, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		users:      users,
		points:     points,
		publisher:  publisher,
		logger:     logger.With().Str("component", "activity_service").Logger(),
		tracer:     otel.Tracer("github.com/campuskit/engage-api/internal/service/activity"),
		now:        time.Now,
	}
}

// Append records an activity. When the kind has a reciprocal counterpart and
// an actor distinct from the subject is given, both halves are inserted as
// one atomic unit, cross-linked via ReciprocalID; a failure leaves neither
// half visible.
func (s *activityService) Append(ctx context.Context, input ActivityInput) (models.Activity, error) {
	spanCtx, span := s.tracer.Start(ctx, "activities.append", trace.WithAttributes(
		attribute.String("activity.kind", string(input.Kind)),
		attribute.Int("activity.course_id", int(input.CourseID)),
		attribute.Int("activity.user_id", int(input.UserID)),
	))
	defer span.End()

	subject, err := s.resolveUser(spanCtx, input.UserID, input.CourseID)
	if err != nil {
		span.RecordError(err)
		return models.Activity{}, err
	}

	primary := s.buildActivity(input)
	affected := []uint{input.UserID}

	reciprocalKind, hasReciprocal := models.ReciprocalKind(input.Kind)
	if hasReciprocal && input.ActorID != nil && *input.ActorID != input.UserID {
		if _, err := s.resolveUser(spanCtx, *input.ActorID, input.CourseID); err != nil {
			span.RecordError(err)
			return models.Activity{}, err
		}
		reciprocal := s.buildActivity(input)
		reciprocal.Kind = reciprocalKind
		reciprocal.UserID = *input.ActorID
		actor := input.UserID
		reciprocal.ActorID = &actor

		if err := s.activities.AppendPair(spanCtx, &primary, &reciprocal); err != nil {
			span.RecordError(err)
			return models.Activity{}, fmt.Errorf("append activity pair: %w", err)
		}
		affected = append(affected, *input.ActorID)
		observability.ActivitiesRecorded().WithLabelValues(string(reciprocal.Kind)).Inc()
		s.publish(spanCtx, reciprocal)
	} else {
		if err := s.activities.Append(spanCtx, &primary); err != nil {
			span.RecordError(err)
			return models.Activity{}, fmt.Errorf("append activity: %w", err)
		}
	}
	observability.ActivitiesRecorded().WithLabelValues(string(primary.Kind)).Inc()
	s.publish(spanCtx, primary)

	if err := s.users.TouchLastActivity(spanCtx, subject.ID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", subject.ID).Msg("failed to update last activity marker")
	}

	if err := s.points.Recalculate(spanCtx, input.CourseID, affected); err != nil {
		span.RecordError(err)
		return models.Activity{}, fmt.Errorf("recalculate points after append: %w", err)
	}

	return primary, nil
}

// AppendUnlessExists records the activity only if no record already matches
// every provided field exactly. The second return value reports whether a
// new record was created.
func (s *activityService) AppendUnlessExists(ctx context.Context, input ActivityInput) (models.Activity, bool, error) {
	existing, err := s.activities.FirstMatching(ctx, matchFromInput(input))
	if err != nil {
		return models.Activity{}, false, fmt.Errorf("match existing activity: %w", err)
	}
	if existing != nil {
		return *existing, false, nil
	}
	created, err := s.Append(ctx, input)
	if err != nil {
		return models.Activity{}, false, err
	}
	return created, true, nil
}

// DeleteByObject removes every activity referencing the object and triggers
// a recompute for the affected users. A miss is a no-op.
func (s *activityService) DeleteByObject(ctx context.Context, objectType models.ObjectType, objectID, courseID uint, userIDs []uint) error {
	removed, err := s.activities.DeleteByObject(ctx, objectType, objectID)
	if err != nil {
		return fmt.Errorf("delete activities by object: %w", err)
	}
	if removed > 0 {
		s.logger.Info().
			Str("object_type", string(objectType)).
			Uint("object_id", objectID).
			Int64("removed", removed).
			Msg("deleted activities for object")
	}
	if len(userIDs) == 0 {
		return nil
	}
	if err := s.points.Recalculate(ctx, courseID, userIDs); err != nil {
		return fmt.Errorf("recalculate points after delete: %w", err)
	}
	return nil
}

// DeleteMatching removes the activities matching the input exactly (the
// reciprocal counterpart included, when the kind defines one) and recomputes
// the affected users. Undoing a like takes this path.
func (s *activityService) DeleteMatching(ctx context.Context, input ActivityInput) error {
	affected := []uint{input.UserID}
	if _, err := s.activities.DeleteMatching(ctx, matchFromInput(input)); err != nil {
		return fmt.Errorf("delete matching activities: %w", err)
	}

	if reciprocalKind, ok := models.ReciprocalKind(input.Kind); ok && input.ActorID != nil && *input.ActorID != input.UserID {
		actor := input.UserID
		reciprocalMatch := repository.ActivityMatch{
			Kind:       reciprocalKind,
			CourseID:   input.CourseID,
			UserID:     *input.ActorID,
			ObjectType: input.ObjectType,
			ObjectID:   input.ObjectID,
			AssetID:    input.AssetID,
			ActorID:    &actor,
		}
		if _, err := s.activities.DeleteMatching(ctx, reciprocalMatch); err != nil {
			return fmt.Errorf("delete reciprocal activities: %w", err)
		}
		affected = append(affected, *input.ActorID)
	}

	if err := s.points.Recalculate(ctx, input.CourseID, affected); err != nil {
		return fmt.Errorf("recalculate points after delete: %w", err)
	}
	return nil
}

func (s *activityService) FindByObject(ctx context.Context, objectType models.ObjectType, objectID uint) ([]models.Activity, error) {
	return s.activities.FindByObject(ctx, objectType, objectID)
}

// UserFeed groups a user's activities into what they did and the impact
// other users had on their work.
func (s *activityService) UserFeed(ctx context.Context, userID uint) (dto.ActivityFeedResponse, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityFeedResponse{}, fmt.Errorf("user %d: %w", userID, ErrInvalidReference)
		}
		return dto.ActivityFeedResponse{}, fmt.Errorf("load user: %w", err)
	}

	activities, err := s.activities.ListForUser(ctx, userID)
	if err != nil {
		return dto.ActivityFeedResponse{}, fmt.Errorf("load user activities: %w", err)
	}

	feed := dto.ActivityFeedResponse{
		Actions: emptyBucket(),
		Impacts: emptyBucket(),
	}
	for _, activity := range activities {
		item := dto.NewActivityResponse(activity)
		switch activity.Kind {
		case models.KindAssetLike, models.KindAssetView:
			feed.Actions.Engagements = append(feed.Actions.Engagements, item)
		case models.KindAssetComment, models.KindAssetCommentReply,
			models.KindDiscussionTopic, models.KindDiscussionEntry, models.KindDiscussionReply:
			feed.Actions.Interactions = append(feed.Actions.Interactions, item)
		case models.KindAssetAdd, models.KindWhiteboardAddAsset,
			models.KindWhiteboardExport, models.KindWhiteboardRemix:
			feed.Actions.Creations = append(feed.Actions.Creations, item)
		case models.KindGetAssetLike, models.KindGetAssetView:
			feed.Impacts.Engagements = append(feed.Impacts.Engagements, item)
		case models.KindGetAssetComment, models.KindGetAssetCommentReply, models.KindGetDiscussionReply:
			feed.Impacts.Interactions = append(feed.Impacts.Interactions, item)
		case models.KindGetWhiteboardAddAsset, models.KindGetWhiteboardRemix:
			feed.Impacts.Creations = append(feed.Impacts.Creations, item)
		}
	}
	return feed, nil
}

// CourseLastActivity reports when anyone in the course last did anything,
// read from the per-user markers.
func (s *activityService) CourseLastActivity(ctx context.Context, courseID uint) (*time.Time, error) {
	latest, err := s.users.LastCourseActivity(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load last course activity: %w", err)
	}
	return latest, nil
}

func (s *activityService) buildActivity(input ActivityInput) models.Activity {
	return models.Activity{
		Kind:       input.Kind,
		CourseID:   input.CourseID,
		UserID:     input.UserID,
		ObjectType: input.ObjectType,
		ObjectID:   input.ObjectID,
		AssetID:    input.AssetID,
		ActorID:    input.ActorID,
		Metadata:   datatypes.JSONMap(input.Metadata),
	}
}

func (s *activityService) resolveUser(ctx context.Context, userID, courseID uint) (models.CourseUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CourseUser{}, fmt.Errorf("user %d: %w", userID, ErrInvalidReference)
		}
		return models.CourseUser{}, fmt.Errorf("load user: %w", err)
	}
	if user.CourseID != courseID {
		return models.CourseUser{}, fmt.Errorf("user %d is not enrolled in course %d: %w", userID, courseID, ErrInvalidReference)
	}
	return user, nil
}

func (s *activityService) publish(ctx context.Context, activity models.Activity) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishActivity(ctx, activity)
}

func matchFromInput(input ActivityInput) repository.ActivityMatch {
	return repository.ActivityMatch{
		Kind:       input.Kind,
		CourseID:   input.CourseID,
		UserID:     input.UserID,
		ObjectType: input.ObjectType,
		ObjectID:   input.ObjectID,
		AssetID:    input.AssetID,
		ActorID:    input.ActorID,
	}
}

func emptyBucket() dto.FeedBucket {
	return dto.FeedBucket{
		Engagements:  []dto.ActivityResponse{},
		Interactions: []dto.ActivityResponse{},
		Creations:    []dto.ActivityResponse{},
	}
}

package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/engage-api/internal/models"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []models.Activity
}

func (p *capturingPublisher) PublishActivity(ctx context.Context, activity models.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, activity)
}

func newActivityFixture(t *testing.T) (*memoryActivityRepo, *memoryUserRepo, *memoryTypeRepo, *capturingPublisher, ActivityService) {
	t.Helper()
	activities := newMemoryActivityRepo()
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		student(2, 7, "Grace Hopper"),
	)
	types := newMemoryTypeRepo()
	require.NoError(t, types.Replace(context.Background(), 7, []models.ActivityTypeConfig{
		enabledRule(7, models.KindAssetLike, 1),
		enabledRule(7, models.KindGetAssetLike, 1),
		enabledRule(7, models.KindAssetView, 0),
		enabledRule(7, models.KindAssetComment, 3),
		enabledRule(7, models.KindGetAssetComment, 1),
	}))
	publisher := &capturingPublisher{}
	points := NewPointsService(users, activities, types, testLogger())
	svc := NewActivityService(activities, users, points, publisher, testLogger())
	return activities, users, types, publisher, svc
}

func TestAppendCreatesReciprocalPair(t *testing.T) {
	activities, users, _, publisher, svc := newActivityFixture(t)

	assetID := uint(31)
	primary, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetLike,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
		ActorID:    ptrUint(2),
	})
	require.NoError(t, err)
	require.Len(t, activities.entries, 2)

	require.Equal(t, models.KindAssetLike, activities.entries[0].Kind)
	require.Equal(t, uint(1), activities.entries[0].UserID)
	require.Equal(t, models.KindGetAssetLike, activities.entries[1].Kind)
	require.Equal(t, uint(2), activities.entries[1].UserID)
	require.Equal(t, uint(1), *activities.entries[1].ActorID)

	// Cross-linked both ways.
	require.NotNil(t, primary.ReciprocalID)
	require.Equal(t, activities.entries[1].ID, *primary.ReciprocalID)
	require.Equal(t, activities.entries[0].ID, *activities.entries[1].ReciprocalID)

	// Both halves score and both users were recomputed.
	liker, err := users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, liker.Points)
	owner, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 1, owner.Points)

	require.NotNil(t, liker.LastActivityAt, "append must touch the subject's last activity marker")
	require.Len(t, publisher.published, 2)
}

func TestAppendWithoutActorSkipsReciprocal(t *testing.T) {
	activities, _, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetView,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
	})
	require.NoError(t, err)
	require.Len(t, activities.entries, 1)
	require.Nil(t, activities.entries[0].ReciprocalID)
}

func TestAppendSelfInteractionSkipsReciprocal(t *testing.T) {
	activities, _, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetLike,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
		ActorID:    ptrUint(1),
	})
	require.NoError(t, err)
	require.Len(t, activities.entries, 1, "acting on your own object must not generate a counterpart")
}

func TestAppendRejectsUnknownUser(t *testing.T) {
	_, _, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetLike,
		CourseID:   7,
		UserID:     99,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
	})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestAppendRejectsUserFromOtherCourse(t *testing.T) {
	activities := newMemoryActivityRepo()
	users := newMemoryUserRepo(student(1, 8, "Ada Lovelace"))
	types := newMemoryTypeRepo()
	points := NewPointsService(users, activities, types, testLogger())
	svc := NewActivityService(activities, users, points, nil, testLogger())

	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetView,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
	})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestAppendUnlessExistsIsIdempotent(t *testing.T) {
	activities, _, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	input := ActivityInput{
		Kind:       models.KindAssetView,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
	}

	first, created, err := svc.AppendUnlessExists(context.Background(), input)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.AppendUnlessExists(context.Background(), input)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, activities.entries, 1)
}

func TestDeleteByObjectRecomputesAffectedUsers(t *testing.T) {
	activities, users, _, _, svc := newActivityFixture(t)

	commentID := uint(51)
	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind:       models.KindAssetComment,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectComment,
		ObjectID:   &commentID,
		AssetID:    &assetID,
		ActorID:    ptrUint(2),
	})
	require.NoError(t, err)

	commenter, err := users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, commenter.Points)

	require.NoError(t, svc.DeleteByObject(context.Background(), models.ObjectComment, commentID, 7, []uint{1, 2}))
	require.Empty(t, activities.entries)

	commenter, err = users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, commenter.Points)
	owner, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 0, owner.Points)
}

func TestDeleteByObjectMissIsNoOp(t *testing.T) {
	_, _, _, _, svc := newActivityFixture(t)
	require.NoError(t, svc.DeleteByObject(context.Background(), models.ObjectComment, 999, 7, nil))
}

func TestDeleteMatchingRemovesBothHalves(t *testing.T) {
	activities, users, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	input := ActivityInput{
		Kind:       models.KindAssetLike,
		CourseID:   7,
		UserID:     1,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
		ActorID:    ptrUint(2),
	}
	_, err := svc.Append(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, activities.entries, 2)

	require.NoError(t, svc.DeleteMatching(context.Background(), input))
	require.Empty(t, activities.entries, "undoing a like must remove the counterpart too")

	owner, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 0, owner.Points)
}

func TestUserFeedBucketsActivities(t *testing.T) {
	_, _, _, _, svc := newActivityFixture(t)

	assetID := uint(31)
	_, err := svc.Append(context.Background(), ActivityInput{
		Kind: models.KindAssetLike, CourseID: 7, UserID: 1,
		ObjectType: models.ObjectAsset, ObjectID: &assetID, AssetID: &assetID, ActorID: ptrUint(2),
	})
	require.NoError(t, err)
	commentID := uint(51)
	_, err = svc.Append(context.Background(), ActivityInput{
		Kind: models.KindAssetComment, CourseID: 7, UserID: 1,
		ObjectType: models.ObjectComment, ObjectID: &commentID, AssetID: &assetID, ActorID: ptrUint(2),
	})
	require.NoError(t, err)

	feed, err := svc.UserFeed(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, feed.Actions.Engagements, 1)
	require.Len(t, feed.Actions.Interactions, 1)
	require.Empty(t, feed.Impacts.Engagements)

	ownerFeed, err := svc.UserFeed(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, ownerFeed.Impacts.Engagements, 1, "get_asset_like lands in impacts")
	require.Len(t, ownerFeed.Impacts.Interactions, 1, "get_asset_comment lands in impacts")
	require.Empty(t, ownerFeed.Actions.Engagements)
}

func TestUserFeedUnknownUser(t *testing.T) {
	_, _, _, _, svc := newActivityFixture(t)
	_, err := svc.UserFeed(context.Background(), 404)
	require.ErrorIs(t, err, ErrInvalidReference)
}

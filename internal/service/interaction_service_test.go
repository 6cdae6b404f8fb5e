package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
)

func appendPairFor(t *testing.T, repo *memoryActivityRepo, kind models.ActivityKind, courseID, subject, actor uint) {
	t.Helper()
	reciprocalKind, ok := models.ReciprocalKind(kind)
	require.True(t, ok)
	assetID := uint(31)
	primary := models.Activity{
		Kind: kind, CourseID: courseID, UserID: subject,
		ObjectType: models.ObjectAsset, ObjectID: &assetID, AssetID: &assetID,
		ActorID: ptrUint(actor),
	}
	reciprocal := models.Activity{
		Kind: reciprocalKind, CourseID: courseID, UserID: actor,
		ObjectType: models.ObjectAsset, ObjectID: &assetID, AssetID: &assetID,
		ActorID: ptrUint(subject),
	}
	require.NoError(t, repo.AppendPair(context.Background(), &primary, &reciprocal))
}

func TestBuildCountsReciprocalEdges(t *testing.T) {
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		student(2, 7, "Grace Hopper"),
	)
	activities := newMemoryActivityRepo()
	assets := newMemoryAssetRepo()

	// User 2 likes user 1's asset twice over time.
	appendPairFor(t, activities, models.KindAssetLike, 7, 1, 2)
	appendPairFor(t, activities, models.KindAssetLike, 7, 1, 2)

	svc := NewInteractionGraphService(users, activities, assets, testLogger())
	graph, err := svc.Build(context.Background(), 7, nil)
	require.NoError(t, err)

	require.Equal(t, []dto.InteractionEdge{
		{Type: "asset_like", Source: 2, Target: 1, Count: 2},
		{Type: "get_asset_like", Source: 1, Target: 2, Count: 2},
	}, graph.Edges)
}

func TestBuildExcludesStaffAndInactive(t *testing.T) {
	teacher := student(3, 7, "Alan Turing")
	teacher.Role = models.RoleTeacher
	dropped := student(4, 7, "Dropped Out")
	dropped.EnrollmentState = models.EnrollmentInactive
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		teacher,
		dropped,
	)
	activities := newMemoryActivityRepo()
	assets := newMemoryAssetRepo()

	appendPairFor(t, activities, models.KindAssetLike, 7, 1, 3)
	appendPairFor(t, activities, models.KindAssetLike, 7, 1, 4)

	svc := NewInteractionGraphService(users, activities, assets, testLogger())
	graph, err := svc.Build(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, graph.Edges, "edges touching staff or inactive users are dropped")
}

func TestBuildSectionFilter(t *testing.T) {
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace", "Section A"),
		student(2, 7, "Grace Hopper", "Section A", "Section B"),
		student(3, 7, "Alan Turing", "Section B"),
	)
	activities := newMemoryActivityRepo()
	assets := newMemoryAssetRepo()

	appendPairFor(t, activities, models.KindAssetComment, 7, 1, 2)
	appendPairFor(t, activities, models.KindAssetComment, 7, 1, 3)

	svc := NewInteractionGraphService(users, activities, assets, testLogger())
	graph, err := svc.Build(context.Background(), 7, []string{"Section A"})
	require.NoError(t, err)

	require.Equal(t, []dto.InteractionEdge{
		{Type: "asset_comment", Source: 2, Target: 1, Count: 1},
		{Type: "get_asset_comment", Source: 1, Target: 2, Count: 1},
	}, graph.Edges, "user 3 shares no requested section, so their edges are dropped")
}

func TestBuildCoCreationEdges(t *testing.T) {
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		student(2, 7, "Grace Hopper"),
		student(3, 7, "Alan Turing"),
	)
	activities := newMemoryActivityRepo()
	assets := newMemoryAssetRepo()

	// One exported whiteboard with three contributors, listed unsorted and
	// with a duplicate membership row.
	require.NoError(t, assets.Create(context.Background(), &models.Asset{
		CourseID: 7,
		Type:     models.AssetWhiteboard,
		Title:    "Group Sketch",
		Users: []models.CourseUser{
			student(3, 7, "Alan Turing"),
			student(1, 7, "Ada Lovelace"),
			student(2, 7, "Grace Hopper"),
			student(1, 7, "Ada Lovelace"),
		},
	}))

	svc := NewInteractionGraphService(users, activities, assets, testLogger())
	graph, err := svc.Build(context.Background(), 7, nil)
	require.NoError(t, err)

	require.Equal(t, []dto.InteractionEdge{
		{Type: EdgeCoCreateWhiteboard, Source: 1, Target: 2, Count: 1},
		{Type: EdgeCoCreateWhiteboard, Source: 1, Target: 3, Count: 1},
		{Type: EdgeCoCreateWhiteboard, Source: 2, Target: 3, Count: 1},
	}, graph.Edges, "pairs are emitted once, lower id first, duplicates collapsed")
}

func TestBuildIsDeterministic(t *testing.T) {
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		student(2, 7, "Grace Hopper"),
	)
	activities := newMemoryActivityRepo()
	assets := newMemoryAssetRepo()
	appendPairFor(t, activities, models.KindAssetLike, 7, 1, 2)
	appendPairFor(t, activities, models.KindAssetView, 7, 2, 1)

	svc := NewInteractionGraphService(users, activities, assets, testLogger())
	first, err := svc.Build(context.Background(), 7, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.Build(context.Background(), 7, nil)
		require.NoError(t, err)
		require.Equal(t, first.Edges, again.Edges)
	}
}

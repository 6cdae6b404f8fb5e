package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/engage-api/internal/models"
)

func TestExportComputesRunningTotals(t *testing.T) {
	courses := newMemoryCourseRepo(models.Course{ID: 7, CanvasCourseID: 1007, Name: "Design Studio", Timezone: "UTC"})
	users := newMemoryUserRepo(
		student(1, 7, "Ada Lovelace"),
		student(2, 7, "Grace Hopper"),
	)
	activities := newMemoryActivityRepo()
	types := newMemoryTypeRepo()
	require.NoError(t, types.Replace(context.Background(), 7, []models.ActivityTypeConfig{
		enabledRule(7, models.KindAssetAdd, 5),
		enabledRule(7, models.KindAssetLike, 1),
		{CourseID: 7, Kind: models.KindAssetView, Enabled: false, Points: 9},
	}))

	seedActivities(activities, 7, 1, models.KindAssetAdd, 1)
	seedActivities(activities, 7, 2, models.KindAssetLike, 1)
	seedActivities(activities, 7, 1, models.KindAssetLike, 2)
	seedActivities(activities, 7, 1, models.KindAssetView, 3)

	svc := NewReportService(courses, users, activities, types, testLogger())
	report, err := svc.Export(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, []string{"user_id", "user_name", "action", "date", "score", "running_total"}, report.Headers)
	require.Len(t, report.Rows, 4, "disabled kinds are omitted")

	// Chronological order with per-user running totals.
	require.Equal(t, []string{"1", "Ada Lovelace", "asset_add"}, report.Rows[0][:3])
	require.Equal(t, []string{"5", "5"}, report.Rows[0][4:])
	require.Equal(t, []string{"2", "Grace Hopper", "asset_like"}, report.Rows[1][:3])
	require.Equal(t, []string{"1", "1"}, report.Rows[1][4:])
	require.Equal(t, []string{"1", "6"}, report.Rows[2][4:])
	require.Equal(t, []string{"1", "7"}, report.Rows[3][4:])
}

func TestExportIncludesSectionsColumnWhenProtected(t *testing.T) {
	courses := newMemoryCourseRepo(models.Course{
		ID: 7, CanvasCourseID: 1007, Name: "Design Studio",
		Timezone: "UTC", ProtectsAssetsPerSection: true,
	})
	users := newMemoryUserRepo(student(1, 7, "Ada Lovelace", "Section A", "Section B"))
	activities := newMemoryActivityRepo()
	types := newMemoryTypeRepo()
	require.NoError(t, types.Replace(context.Background(), 7, []models.ActivityTypeConfig{
		enabledRule(7, models.KindAssetAdd, 5),
	}))
	seedActivities(activities, 7, 1, models.KindAssetAdd, 1)

	svc := NewReportService(courses, users, activities, types, testLogger())
	report, err := svc.Export(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, "course_sections", report.Headers[0])
	require.Equal(t, "Section A, Section B", report.Rows[0][0])
}

func TestExportUnknownTimezoneFallsBackToUTC(t *testing.T) {
	courses := newMemoryCourseRepo(models.Course{ID: 7, CanvasCourseID: 1007, Name: "Design Studio", Timezone: "Mars/Olympus"})
	users := newMemoryUserRepo(student(1, 7, "Ada Lovelace"))
	activities := newMemoryActivityRepo()
	types := newMemoryTypeRepo()
	require.NoError(t, types.Replace(context.Background(), 7, []models.ActivityTypeConfig{
		enabledRule(7, models.KindAssetAdd, 5),
	}))
	seedActivities(activities, 7, 1, models.KindAssetAdd, 1)

	svc := NewReportService(courses, users, activities, types, testLogger())
	report, err := svc.Export(context.Background(), 7)
	require.NoError(t, err)
	require.Contains(t, report.Rows[0][3], "Z", "timestamps fall back to UTC")
}

func TestExportUnknownCourse(t *testing.T) {
	svc := NewReportService(newMemoryCourseRepo(), newMemoryUserRepo(), newMemoryActivityRepo(), newMemoryTypeRepo(), testLogger())
	_, err := svc.Export(context.Background(), 404)
	require.ErrorIs(t, err, ErrInvalidReference)
}

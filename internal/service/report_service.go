package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
)

// ReportService produces the chronological engagement export for a course.
type ReportService interface {
	Export(ctx context.Context, courseID uint) (dto.ActivityReport, error)
}

type reportService struct {
	courses    repository.CourseRepository
	users      repository.CourseUserRepository
	activities repository.ActivityRepository
	types      repository.ActivityTypeRepository
	logger     zerolog.Logger
}

// NewReportService constructs the report exporter.
func NewReportService(courses repository.CourseRepository, users repository.CourseUserRepository, activities repository.ActivityRepository, types repository.ActivityTypeRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		courses:    courses,
		users:      users,
		activities: activities,
		types:      types,
		logger:     logger.With().Str("component", "report_service").Logger(),
	}
}

// Export replays the course activity log in chronological order and reports
// a per-user running total as of each row. It deliberately rescans the log
// instead of reusing cached totals: the report shows the point trajectory
// over time, not the final aggregate.
func (s *reportService) Export(ctx context.Context, courseID uint) (dto.ActivityReport, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityReport{}, fmt.Errorf("course %d: %w", courseID, ErrInvalidReference)
		}
		return dto.ActivityReport{}, fmt.Errorf("load course: %w", err)
	}

	entries, err := s.types.Configuration(ctx, courseID)
	if err != nil {
		return dto.ActivityReport{}, fmt.Errorf("load activity type configuration: %w", err)
	}
	rules := make(map[models.ActivityKind]models.ActivityTypeConfig, len(entries))
	for _, entry := range entries {
		rules[entry.Kind] = entry
	}

	users, err := s.users.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.ActivityReport{}, fmt.Errorf("load course users: %w", err)
	}
	usersByID := make(map[uint]models.CourseUser, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	activities, err := s.activities.ListChronological(ctx, courseID)
	if err != nil {
		return dto.ActivityReport{}, fmt.Errorf("load activities: %w", err)
	}

	location, err := time.LoadLocation(course.Timezone)
	if err != nil {
		s.logger.Warn().Str("timezone", course.Timezone).Msg("unknown course timezone, falling back to UTC")
		location = time.UTC
	}

	headers := []string{"user_id", "user_name", "action", "date", "score", "running_total"}
	if course.ProtectsAssetsPerSection {
		headers = append([]string{"course_sections"}, headers...)
	}

	runningTotals := make(map[uint]int)
	rows := make([][]string, 0, len(activities))
	for _, activity := range activities {
		rule, ok := rules[activity.Kind]
		if !ok || !rule.Enabled {
			continue
		}
		runningTotals[activity.UserID] += rule.Points
		user := usersByID[activity.UserID]

		row := make([]string, 0, len(headers))
		if course.ProtectsAssetsPerSection {
			row = append(row, strings.Join([]string(user.Sections), ", "))
		}
		row = append(row,
			strconv.FormatUint(uint64(activity.UserID), 10),
			user.FullName,
			string(activity.Kind),
			activity.CreatedAt.In(location).Format(time.RFC3339),
			strconv.Itoa(rule.Points),
			strconv.Itoa(runningTotals[activity.UserID]),
		)
		rows = append(rows, row)
	}

	return dto.ActivityReport{Headers: headers, Rows: rows}, nil
}

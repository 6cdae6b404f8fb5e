package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
)

// LeaderboardService serves the per-course engagement ranking, cached in
// Redis. Totals come straight from the derived points column, so the cache
// only ever lags by its TTL.
type LeaderboardService interface {
	Leaderboard(ctx context.Context, courseID uint) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	users  repository.CourseUserRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewLeaderboardService constructs the leaderboard reader.
func NewLeaderboardService(users repository.CourseUserRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &leaderboardService{
		users:  users,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "leaderboard_service").Logger(),
		now:    time.Now,
	}
}

func (s *leaderboardService) Leaderboard(ctx context.Context, courseID uint) (dto.LeaderboardResponse, error) {
	cacheKey := fmt.Sprintf("engage:leaderboard:%d", courseID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.LeaderboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				observability.LeaderboardRequests().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard cache")
		}
	}

	users, err := s.users.ListByCourse(ctx, courseID)
	if err != nil {
		observability.LeaderboardRequests().WithLabelValues("error").Inc()
		return dto.LeaderboardResponse{}, fmt.Errorf("load course users: %w", err)
	}

	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for _, user := range users {
		if !user.IsStudent() || !user.HasActiveEnrollment() {
			continue
		}
		entries = append(entries, dto.LeaderboardEntry{
			UserID:         user.ID,
			FullName:       user.FullName,
			Image:          user.Image,
			Points:         user.Points,
			LastActivityAt: user.LastActivityAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].FullName < entries[j].FullName
	})

	response := dto.LeaderboardResponse{
		CourseID:    courseID,
		Entries:     entries,
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store leaderboard cache")
			}
		}
	}

	observability.LeaderboardRequests().WithLabelValues("miss").Inc()
	return response, nil
}

package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/middleware"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// EngagementHandler serves the course scoring configuration, the points
// recompute trigger, the interaction graph, the CSV export and the
// leaderboard.
type EngagementHandler struct {
	config       service.ActivityConfigService
	points       service.PointsService
	interactions service.InteractionGraphService
	reports      service.ReportService
	leaderboard  service.LeaderboardService
	logger       zerolog.Logger
}

// NewEngagementHandler constructs the handler instance.
func NewEngagementHandler(
	config service.ActivityConfigService,
	points service.PointsService,
	interactions service.InteractionGraphService,
	reports service.ReportService,
	leaderboard service.LeaderboardService,
	logger zerolog.Logger,
) *EngagementHandler {
	return &EngagementHandler{
		config:       config,
		points:       points,
		interactions: interactions,
		reports:      reports,
		leaderboard:  leaderboard,
		logger:       logger.With().Str("component", "engagement_handler").Logger(),
	}
}

// Register wires the engagement routes under a course group.
func (h *EngagementHandler) Register(course fiber.Router) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	course.Get("/activities/config", h.configuration)
	course.Put("/activities/config", staff, h.updateConfiguration)
	course.Post("/activities/recalculate", staff, h.recalculate)
	course.Get("/activities/interactions", h.interactionGraph)
	course.Get("/activities/csv", staff, h.exportCSV)
	course.Get("/activities/leaderboard", h.courseLeaderboard)
}

func (h *EngagementHandler) configuration(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	configuration, err := h.config.Configuration(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load activity configuration")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load configuration")
	}
	return utils.SendSuccess(c, "configuration retrieved", configuration)
}

func (h *EngagementHandler) updateConfiguration(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	var req dto.ActivityConfigUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	configuration, err := h.config.Update(c.UserContext(), courseID, req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidReference):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update activity configuration")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update configuration")
		}
	}
	return utils.SendSuccess(c, "configuration updated", configuration)
}

func (h *EngagementHandler) recalculate(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	var req dto.RecalculateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := h.points.Recalculate(c.UserContext(), courseID, req.UserIDs); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("points recompute failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "recalculation failed")
	}
	return utils.SendSuccess(c, "points recalculated", nil)
}

func (h *EngagementHandler) interactionGraph(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	var sections []string
	if raw := c.Query("sections"); raw != "" {
		sections = splitAndTrim(raw)
	}

	graph, err := h.interactions.Build(c.UserContext(), courseID, sections)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build interaction graph")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build interaction graph")
	}
	return utils.SendSuccess(c, "interaction graph built", graph)
}

func (h *EngagementHandler) exportCSV(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	report, err := h.reports.Export(c.UserContext(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReference) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export activity report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export report")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(report.Headers); err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to write report")
	}
	if err := writer.WriteAll(report.Rows); err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to write report")
	}

	filename := fmt.Sprintf("engagement_%d_%s.csv", courseID, time.Now().UTC().Format("2006_01_02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func (h *EngagementHandler) courseLeaderboard(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	result, err := h.leaderboard.Leaderboard(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load leaderboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load leaderboard")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}
	return utils.SendSuccess(c, "leaderboard retrieved", result)
}

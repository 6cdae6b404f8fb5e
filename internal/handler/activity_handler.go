package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// ActivityHandler serves the per-user activity feed and the realtime course
// activity stream.
type ActivityHandler struct {
	activities service.ActivityService
	stream     service.ActivityStreamService
	logger     zerolog.Logger
}

// NewActivityHandler constructs the handler instance. The stream may be nil
// when realtime streaming is not configured.
func NewActivityHandler(activities service.ActivityService, stream service.ActivityStreamService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		stream:     stream,
		logger:     logger.With().Str("component", "activity_handler").Logger(),
	}
}

// RegisterUserRoutes wires the per-user feed route.
func (h *ActivityHandler) RegisterUserRoutes(users fiber.Router) {
	users.Get("/:id/activities", h.userFeed)
}

// RegisterCourseRoutes wires the course-level activity routes: the
// last-activity marker and the websocket stream.
func (h *ActivityHandler) RegisterCourseRoutes(course fiber.Router) {
	course.Get("/activities/last", h.lastActivity)
	// The course-scope check runs here, before the upgrade, while the
	// fiber context still carries the token locals.
	course.Use("/activities/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if _, err := requireCourse(c); err != nil {
			return err
		}
		return c.Next()
	})
	course.Get("/activities/ws", websocket.New(h.streamConnection))
}

func (h *ActivityHandler) userFeed(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	feed, err := h.activities.UserFeed(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReference) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load activity feed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load activity feed")
	}
	return utils.SendSuccess(c, "activity feed retrieved", feed)
}

func (h *ActivityHandler) lastActivity(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	latest, err := h.activities.CourseLastActivity(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load last course activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load last activity")
	}
	return utils.SendSuccess(c, "last activity retrieved", fiber.Map{"last_activity_at": latest})
}

func (h *ActivityHandler) streamConnection(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	if h.stream == nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream unavailable"))
		return
	}

	raw := strings.TrimSpace(conn.Params("courseId"))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "invalid course id"))
		return
	}
	courseID := uint(parsed)

	events, cancel := h.stream.Subscribe(courseID)
	defer cancel()

	h.logger.Info().Uint("course_id", courseID).Msg("activity stream connected")
	defer h.logger.Info().Uint("course_id", courseID).Msg("activity stream disconnected")

	// Reads only serve to detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// WhiteboardHandler serves the shared whiteboard endpoints.
type WhiteboardHandler struct {
	service service.WhiteboardService
	logger  zerolog.Logger
}

// NewWhiteboardHandler constructs the handler instance.
func NewWhiteboardHandler(service service.WhiteboardService, logger zerolog.Logger) *WhiteboardHandler {
	return &WhiteboardHandler{
		service: service,
		logger:  logger.With().Str("component", "whiteboard_handler").Logger(),
	}
}

// Register wires the whiteboard routes under a course group.
func (h *WhiteboardHandler) Register(course fiber.Router) {
	course.Get("/whiteboards", h.list)
	course.Post("/whiteboards", h.create)
	course.Get("/whiteboards/:id", h.get)
	course.Post("/whiteboards/:id/elements", h.addElement)
	course.Post("/whiteboards/:id/export", h.export)
	course.Post("/whiteboards/:id/remix", h.remix)
}

func (h *WhiteboardHandler) list(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	whiteboards, err := h.service.List(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list whiteboards")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list whiteboards")
	}
	return utils.SendSuccess(c, "whiteboards retrieved", whiteboards)
}

func (h *WhiteboardHandler) create(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	var req dto.WhiteboardCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	whiteboard, err := h.service.Create(c.UserContext(), courseID, userIDFromContext(c), req)
	if err != nil {
		return h.sendWhiteboardError(c, err, "failed to create whiteboard")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "whiteboard created", whiteboard)
}

func (h *WhiteboardHandler) get(c *fiber.Ctx) error {
	whiteboardID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid whiteboard id")
	}

	whiteboard, err := h.service.Get(c.UserContext(), whiteboardID)
	if err != nil {
		return h.sendWhiteboardError(c, err, "failed to load whiteboard")
	}
	return utils.SendSuccess(c, "whiteboard retrieved", whiteboard)
}

func (h *WhiteboardHandler) addElement(c *fiber.Ctx) error {
	whiteboardID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid whiteboard id")
	}

	var req dto.ElementCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	element, err := h.service.AddElement(c.UserContext(), whiteboardID, userIDFromContext(c), req)
	if err != nil {
		return h.sendWhiteboardError(c, err, "failed to add element")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "element added", element)
}

func (h *WhiteboardHandler) export(c *fiber.Ctx) error {
	whiteboardID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid whiteboard id")
	}

	var req dto.WhiteboardExportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	asset, err := h.service.Export(c.UserContext(), whiteboardID, userIDFromContext(c), req)
	if err != nil {
		return h.sendWhiteboardError(c, err, "failed to export whiteboard")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "whiteboard exported", asset)
}

func (h *WhiteboardHandler) remix(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	whiteboard, err := h.service.Remix(c.UserContext(), assetID, userIDFromContext(c))
	if err != nil {
		return h.sendWhiteboardError(c, err, "failed to remix whiteboard")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "whiteboard remixed", whiteboard)
}

func (h *WhiteboardHandler) sendWhiteboardError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidReference):
		return utils.SendError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "not permitted")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

package handler

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// PreviewHandler receives callbacks from the external preview generation
// service. Callbacks authenticate with a shared secret rather than a user
// token.
type PreviewHandler struct {
	service service.PreviewService
	secret  string
	logger  zerolog.Logger
}

// NewPreviewHandler constructs the handler instance.
func NewPreviewHandler(service service.PreviewService, secret string, logger zerolog.Logger) *PreviewHandler {
	return &PreviewHandler{
		service: service,
		secret:  secret,
		logger:  logger.With().Str("component", "preview_handler").Logger(),
	}
}

// Register wires the preview callback route.
func (h *PreviewHandler) Register(router fiber.Router) {
	router.Post("/callback", h.callback)
}

func (h *PreviewHandler) callback(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization")
	}

	var req dto.PreviewCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	asset, err := h.service.ApplyCallback(c.UserContext(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidReference):
			return utils.SendError(c, fiber.StatusNotFound, "asset not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("preview callback failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to apply preview")
		}
	}

	return utils.SendSuccess(c, "preview applied", asset)
}

func (h *PreviewHandler) authorized(c *fiber.Ctx) bool {
	if h.secret == "" {
		return false
	}
	authorization := c.Get("Authorization")
	const bearer = "Bearer "
	if !strings.HasPrefix(authorization, bearer) {
		return false
	}
	provided := strings.TrimSpace(authorization[len(bearer):])
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/middleware"
	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// AuthHandler serves the developer login gate and profile endpoints.
type AuthHandler struct {
	service   service.AuthService
	jwtSecret string
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler instance.
func NewAuthHandler(service service.AuthService, jwtSecret string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/dev_auth_login", middleware.RateLimit("dev_auth_login", 10, time.Minute), h.devAuthLogin)
	router.Post("/logout", h.logout)
	router.Get("/profile", middleware.JWTProtected(h.jwtSecret), h.profile)
}

func (h *AuthHandler) devAuthLogin(c *fiber.Ctx) error {
	var req dto.DevAuthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.DevAuthLogin(c.UserContext(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDevAuthDisabled):
			return utils.SendError(c, fiber.StatusNotFound, "not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("dev auth login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}
	}

	return utils.SendSuccess(c, "logged in", result)
}

// logout is a no-op: sessions are stateless JWTs and the client simply
// drops its token.
func (h *AuthHandler) logout(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) profile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	profile, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReference) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("profile lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load profile")
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

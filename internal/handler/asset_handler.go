package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/service"
	"github.com/campuskit/engage-api/internal/utils"
)

// AssetHandler serves the course asset library endpoints.
type AssetHandler struct {
	service service.AssetService
	logger  zerolog.Logger
}

// NewAssetHandler constructs the handler instance.
func NewAssetHandler(service service.AssetService, logger zerolog.Logger) *AssetHandler {
	return &AssetHandler{
		service: service,
		logger:  logger.With().Str("component", "asset_handler").Logger(),
	}
}

// Register wires the asset routes under a course group.
func (h *AssetHandler) Register(course fiber.Router, api fiber.Router) {
	course.Get("/assets", h.list)
	course.Post("/assets", h.createLink)
	course.Post("/assets/upload", h.upload)
	course.Get("/assets/:id", h.get)
	course.Post("/assets/:id/like", h.like)
	course.Delete("/assets/:id/like", h.unlike)
	course.Post("/assets/:id/views", h.recordView)
	course.Post("/assets/:id/comments", h.createComment)
	api.Delete("/comments/:id", h.deleteComment)
}

func (h *AssetHandler) list(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	assets, err := h.service.List(c.UserContext(), courseID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list assets")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list assets")
	}
	return utils.SendSuccess(c, "assets retrieved", assets)
}

func (h *AssetHandler) createLink(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	var req dto.AssetCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	asset, err := h.service.CreateLink(c.UserContext(), courseID, userIDFromContext(c), req)
	if err != nil {
		return h.sendAssetError(c, err, "failed to create asset")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "asset created", asset)
}

func (h *AssetHandler) upload(c *fiber.Ctx) error {
	courseID, err := requireCourse(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = file.Filename
	}

	asset, err := h.service.Upload(c.UserContext(), courseID, userIDFromContext(c), title, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file is too large")
		case errors.Is(err, service.ErrUploadTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, "file type is not allowed")
		default:
			return h.sendAssetError(c, err, "failed to upload asset")
		}
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "asset uploaded", asset)
}

func (h *AssetHandler) get(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	asset, err := h.service.Get(c.UserContext(), assetID)
	if err != nil {
		return h.sendAssetError(c, err, "failed to load asset")
	}
	return utils.SendSuccess(c, "asset retrieved", asset)
}

func (h *AssetHandler) like(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	if err := h.service.Like(c.UserContext(), assetID, userIDFromContext(c)); err != nil {
		return h.sendAssetError(c, err, "failed to like asset")
	}
	return utils.SendSuccess(c, "asset liked", nil)
}

func (h *AssetHandler) unlike(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	if err := h.service.Unlike(c.UserContext(), assetID, userIDFromContext(c)); err != nil {
		return h.sendAssetError(c, err, "failed to unlike asset")
	}
	return utils.SendSuccess(c, "asset unliked", nil)
}

func (h *AssetHandler) recordView(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	created, err := h.service.RecordView(c.UserContext(), assetID, userIDFromContext(c))
	if err != nil {
		return h.sendAssetError(c, err, "failed to record view")
	}
	return utils.SendSuccess(c, "view recorded", fiber.Map{"created": created})
}

func (h *AssetHandler) createComment(c *fiber.Ctx) error {
	assetID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var req dto.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.CreateComment(c.UserContext(), assetID, userIDFromContext(c), req)
	if err != nil {
		return h.sendAssetError(c, err, "failed to create comment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}

func (h *AssetHandler) deleteComment(c *fiber.Ctx) error {
	commentID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid comment id")
	}

	if err := h.service.DeleteComment(c.UserContext(), commentID, userIDFromContext(c)); err != nil {
		return h.sendAssetError(c, err, "failed to delete comment")
	}
	return utils.SendSuccess(c, "comment deleted", nil)
}

func (h *AssetHandler) sendAssetError(c *fiber.Ctx, err error, fallback string) error {
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

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
)

// WhiteboardService manages shared whiteboards and the engagement
// activities whiteboard work generates.
type WhiteboardService interface {
	Create(ctx context.Context, courseID, creatorID uint, req dto.WhiteboardCreateRequest) (dto.WhiteboardResponse, error)
	Get(ctx context.Context, whiteboardID uint) (dto.WhiteboardResponse, error)
	List(ctx context.Context, courseID uint) ([]dto.WhiteboardResponse, error)
	AddElement(ctx context.Context, whiteboardID, userID uint, req dto.ElementCreateRequest) (dto.ElementResponse, error)
	Export(ctx context.Context, whiteboardID, userID uint, req dto.WhiteboardExportRequest) (dto.AssetResponse, error)
	Remix(ctx context.Context, assetID, userID uint) (dto.WhiteboardResponse, error)
}

type whiteboardService struct {
	whiteboards repository.WhiteboardRepository
	assets      repository.AssetRepository
	users       repository.CourseUserRepository
	activities  ActivityService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewWhiteboardService constructs the whiteboard service.
func NewWhiteboardService(whiteboards repository.WhiteboardRepository, assets repository.AssetRepository, users repository.CourseUserRepository, activities ActivityService, validate *validator.Validate, logger zerolog.Logger) WhiteboardService {
	return &whiteboardService{
		whiteboards: whiteboards,
		assets:      assets,
		users:       users,
		activities:  activities,
		validator:   validate,
		logger:      logger.With().Str("component", "whiteboard_service").Logger(),
	}
}

func (s *whiteboardService) Create(ctx context.Context, courseID, creatorID uint, req dto.WhiteboardCreateRequest) (dto.WhiteboardResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.WhiteboardResponse{}, err
	}

	memberIDs := append([]uint{creatorID}, req.UserIDs...)
	members, err := s.resolveMembers(ctx, courseID, memberIDs)
	if err != nil {
		return dto.WhiteboardResponse{}, err
	}

	whiteboard := models.Whiteboard{
		CourseID: courseID,
		Title:    strings.TrimSpace(req.Title),
		Users:    members,
	}
	if err := s.whiteboards.Create(ctx, &whiteboard); err != nil {
		return dto.WhiteboardResponse{}, fmt.Errorf("create whiteboard: %w", err)
	}
	return dto.NewWhiteboardResponse(whiteboard), nil
}

// Get loads one whiteboard together with its elements in placement order.
func (s *whiteboardService) Get(ctx context.Context, whiteboardID uint) (dto.WhiteboardResponse, error) {
	whiteboard, err := s.findWhiteboard(ctx, whiteboardID)
	if err != nil {
		return dto.WhiteboardResponse{}, err
	}

	elements, err := s.whiteboards.ListElements(ctx, whiteboardID)
	if err != nil {
		return dto.WhiteboardResponse{}, fmt.Errorf("list whiteboard elements: %w", err)
	}

	response := dto.NewWhiteboardResponse(whiteboard)
	response.Elements = make([]dto.ElementResponse, 0, len(elements))
	for _, element := range elements {
		response.Elements = append(response.Elements, dto.NewElementResponse(element))
	}
	return response, nil
}

func (s *whiteboardService) List(ctx context.Context, courseID uint) ([]dto.WhiteboardResponse, error) {
	whiteboards, err := s.whiteboards.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	responses := make([]dto.WhiteboardResponse, 0, len(whiteboards))
	for _, whiteboard := range whiteboards {
		responses = append(responses, dto.NewWhiteboardResponse(whiteboard))
	}
	return responses, nil
}

// AddElement places one element on a whiteboard. Placing a library asset
// records whiteboard_add_asset for the editor, paired with
// get_whiteboard_add_asset for the asset's author.
func (s *whiteboardService) AddElement(ctx context.Context, whiteboardID, userID uint, req dto.ElementCreateRequest) (dto.ElementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ElementResponse{}, err
	}
	if !json.Valid(req.Element) {
		return dto.ElementResponse{}, errors.New("element payload is not valid JSON")
	}

	whiteboard, err := s.findWhiteboard(ctx, whiteboardID)
	if err != nil {
		return dto.ElementResponse{}, err
	}

	element := models.WhiteboardElement{
		WhiteboardID: whiteboardID,
		UID:          req.UID,
		AssetID:      req.AssetID,
		Element:      datatypes.JSON(req.Element),
	}
	if err := s.whiteboards.AddElement(ctx, &element); err != nil {
		return dto.ElementResponse{}, fmt.Errorf("add whiteboard element: %w", err)
	}

	if req.AssetID != nil {
		asset, err := s.assets.FindByID(ctx, *req.AssetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ElementResponse{}, fmt.Errorf("asset %d: %w", *req.AssetID, ErrInvalidReference)
			}
			return dto.ElementResponse{}, fmt.Errorf("load asset: %w", err)
		}

		boardID := whiteboard.ID
		input := ActivityInput{
			Kind:       models.KindWhiteboardAddAsset,
			CourseID:   whiteboard.CourseID,
			UserID:     userID,
			ObjectType: models.ObjectWhiteboard,
			ObjectID:   &boardID,
			AssetID:    req.AssetID,
		}
		if len(asset.Users) > 0 && asset.Users[0].ID != userID {
			author := asset.Users[0].ID
			input.ActorID = &author
		}
		if _, err := s.activities.Append(ctx, input); err != nil {
			return dto.ElementResponse{}, fmt.Errorf("record whiteboard_add_asset activity: %w", err)
		}
	}

	return dto.NewElementResponse(element), nil
}

// Export snapshots the whiteboard into the asset library. The resulting
// asset carries every member as an author, which is what the co-creation
// edges of the interaction graph are derived from.
func (s *whiteboardService) Export(ctx context.Context, whiteboardID, userID uint, req dto.WhiteboardExportRequest) (dto.AssetResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssetResponse{}, err
	}

	whiteboard, err := s.findWhiteboard(ctx, whiteboardID)
	if err != nil {
		return dto.AssetResponse{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = whiteboard.Title
	}

	asset := models.Asset{
		CourseID:      whiteboard.CourseID,
		Type:          models.AssetWhiteboard,
		Title:         title,
		PreviewStatus: models.PreviewPending,
		Users:         whiteboard.Users,
	}
	if err := s.assets.Create(ctx, &asset); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("create whiteboard asset: %w", err)
	}

	boardID := whiteboard.ID
	assetID := asset.ID
	input := ActivityInput{
		Kind:       models.KindWhiteboardExport,
		CourseID:   whiteboard.CourseID,
		UserID:     userID,
		ObjectType: models.ObjectWhiteboard,
		ObjectID:   &boardID,
		AssetID:    &assetID,
	}
	if _, err := s.activities.Append(ctx, input); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("record whiteboard_export activity: %w", err)
	}

	return dto.NewAssetResponse(asset), nil
}

// Remix copies an exported whiteboard asset into a fresh whiteboard for the
// remixing user, crediting the original authors with the reciprocal.
func (s *whiteboardService) Remix(ctx context.Context, assetID, userID uint) (dto.WhiteboardResponse, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WhiteboardResponse{}, fmt.Errorf("asset %d: %w", assetID, ErrInvalidReference)
		}
		return dto.WhiteboardResponse{}, fmt.Errorf("load asset: %w", err)
	}
	if asset.Type != models.AssetWhiteboard {
		return dto.WhiteboardResponse{}, fmt.Errorf("asset %d is not an exported whiteboard: %w", assetID, ErrInvalidReference)
	}

	remixer, err := s.resolveMembers(ctx, asset.CourseID, []uint{userID})
	if err != nil {
		return dto.WhiteboardResponse{}, err
	}

	whiteboard := models.Whiteboard{
		CourseID: asset.CourseID,
		Title:    asset.Title,
		Users:    remixer,
	}
	if err := s.whiteboards.Create(ctx, &whiteboard); err != nil {
		return dto.WhiteboardResponse{}, fmt.Errorf("create remixed whiteboard: %w", err)
	}

	boardID := whiteboard.ID
	originalID := asset.ID
	input := ActivityInput{
		Kind:       models.KindWhiteboardRemix,
		CourseID:   asset.CourseID,
		UserID:     userID,
		ObjectType: models.ObjectWhiteboard,
		ObjectID:   &boardID,
		AssetID:    &originalID,
	}
	if len(asset.Users) > 0 && asset.Users[0].ID != userID {
		author := asset.Users[0].ID
		input.ActorID = &author
	}
	if _, err := s.activities.Append(ctx, input); err != nil {
		return dto.WhiteboardResponse{}, fmt.Errorf("record whiteboard_remix activity: %w", err)
	}

	return dto.NewWhiteboardResponse(whiteboard), nil
}

func (s *whiteboardService) findWhiteboard(ctx context.Context, whiteboardID uint) (models.Whiteboard, error) {
	whiteboard, err := s.whiteboards.FindByID(ctx, whiteboardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Whiteboard{}, fmt.Errorf("whiteboard %d: %w", whiteboardID, ErrInvalidReference)
		}
		return models.Whiteboard{}, fmt.Errorf("load whiteboard: %w", err)
	}
	return whiteboard, nil
}

func (s *whiteboardService) resolveMembers(ctx context.Context, courseID uint, memberIDs []uint) ([]models.CourseUser, error) {
	seen := make(map[uint]struct{}, len(memberIDs))
	unique := make([]uint, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	members, err := s.users.ListByIDs(ctx, courseID, unique)
	if err != nil {
		return nil, fmt.Errorf("load whiteboard members: %w", err)
	}
	if len(members) != len(unique) {
		return nil, fmt.Errorf("whiteboard members must be enrolled in course %d: %w", courseID, ErrInvalidReference)
	}
	return members, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
)

// PreviewService applies callbacks from the external preview generation
// service to library assets.
type PreviewService interface {
	ApplyCallback(ctx context.Context, req dto.PreviewCallbackRequest) (dto.AssetResponse, error)
}

type previewService struct {
	assets    repository.AssetRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPreviewService constructs the preview callback handler.
func NewPreviewService(assets repository.AssetRepository, validate *validator.Validate, logger zerolog.Logger) PreviewService {
	return &previewService{
		assets:    assets,
		validator: validate,
		logger:    logger.With().Str("component", "preview_service").Logger(),
		now:       time.Now,
	}
}

func (s *previewService) ApplyCallback(ctx context.Context, req dto.PreviewCallbackRequest) (dto.AssetResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssetResponse{}, err
	}

	asset, err := s.assets.FindByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssetResponse{}, fmt.Errorf("asset %d: %w", req.ID, ErrInvalidReference)
		}
		return dto.AssetResponse{}, fmt.Errorf("load asset: %w", err)
	}

	metadata := datatypes.JSONMap{}
	if req.Metadata != "" {
		if err := json.Unmarshal([]byte(req.Metadata), &metadata); err != nil {
			return dto.AssetResponse{}, fmt.Errorf("parse preview metadata: %w", err)
		}
	}
	if req.Status == models.PreviewDone {
		metadata["updatedAt"] = s.now().UTC().Format(time.RFC3339)
	}

	asset.PreviewStatus = req.Status
	asset.ThumbnailURL = req.Thumbnail
	asset.ImageURL = req.Image
	asset.PdfURL = req.Pdf
	asset.PreviewMetadata = metadata

	if err := s.assets.UpdatePreview(ctx, &asset); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("update asset preview: %w", err)
	}

	s.logger.Info().Uint("asset_id", asset.ID).Str("status", req.Status).Msg("asset preview updated")
	return dto.NewAssetResponse(asset), nil
}

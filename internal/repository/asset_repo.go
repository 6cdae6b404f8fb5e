package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
)

// AssetRepository persists library assets and their authorship rows.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	FindByID(ctx context.Context, id uint) (models.Asset, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Asset, error)
	UpdatePreview(ctx context.Context, asset *models.Asset) error
	ListWhiteboardAuthorships(ctx context.Context, courseID uint) ([]models.AssetAuthorship, error)
}

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository constructs the asset repository.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *assetRepository) FindByID(ctx context.Context, id uint) (models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).Preload("Users").First(&asset, id).Error; err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

func (r *assetRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Asset, error) {
	var assets []models.Asset
	err := r.db.WithContext(ctx).
		Preload("Users").
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) UpdatePreview(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).
		Model(asset).
		Select("PreviewStatus", "ThumbnailURL", "ImageURL", "PdfURL", "PreviewMetadata").
		Updates(asset).
		Error
}

// ListWhiteboardAuthorships returns the (asset, user) authorship rows of
// every live whiteboard-type asset in the course. Co-creation edges are
// paired up from these rows.
func (r *assetRepository) ListWhiteboardAuthorships(ctx context.Context, courseID uint) ([]models.AssetAuthorship, error) {
	var rows []models.AssetAuthorship
	err := r.db.WithContext(ctx).
		Table("asset_users").
		Select("asset_users.asset_id, asset_users.course_user_id AS user_id").
		Joins("JOIN assets ON assets.id = asset_users.asset_id").
		Where("assets.course_id = ? AND assets.type = ? AND assets.deleted_at IS NULL", courseID, models.AssetWhiteboard).
		Order("asset_users.asset_id ASC, asset_users.course_user_id ASC").
		Scan(&rows).Error
	return rows, err
}

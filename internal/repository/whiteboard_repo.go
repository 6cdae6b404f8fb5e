package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
)

// WhiteboardRepository persists whiteboards and their elements.
type WhiteboardRepository interface {
	Create(ctx context.Context, whiteboard *models.Whiteboard) error
	FindByID(ctx context.Context, id uint) (models.Whiteboard, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Whiteboard, error)
	AddElement(ctx context.Context, element *models.WhiteboardElement) error
	ListElements(ctx context.Context, whiteboardID uint) ([]models.WhiteboardElement, error)
}

type whiteboardRepository struct {
	db *gorm.DB
}

// NewWhiteboardRepository constructs the whiteboard repository.
func NewWhiteboardRepository(db *gorm.DB) WhiteboardRepository {
	return &whiteboardRepository{db: db}
}

func (r *whiteboardRepository) Create(ctx context.Context, whiteboard *models.Whiteboard) error {
	return r.db.WithContext(ctx).Create(whiteboard).Error
}

func (r *whiteboardRepository) FindByID(ctx context.Context, id uint) (models.Whiteboard, error) {
	var whiteboard models.Whiteboard
	if err := r.db.WithContext(ctx).Preload("Users").First(&whiteboard, id).Error; err != nil {
		return models.Whiteboard{}, err
	}
	return whiteboard, nil
}

func (r *whiteboardRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Whiteboard, error) {
	var whiteboards []models.Whiteboard
	err := r.db.WithContext(ctx).
		Preload("Users").
		Where("course_id = ?", courseID).
		Order("updated_at DESC").
		Find(&whiteboards).Error
	return whiteboards, err
}

func (r *whiteboardRepository) AddElement(ctx context.Context, element *models.WhiteboardElement) error {
	return r.db.WithContext(ctx).Create(element).Error
}

func (r *whiteboardRepository) ListElements(ctx context.Context, whiteboardID uint) ([]models.WhiteboardElement, error) {
	var elements []models.WhiteboardElement
	err := r.db.WithContext(ctx).
		Where("whiteboard_id = ?", whiteboardID).
		Order("created_at ASC").
		Find(&elements).Error
	return elements, err
}

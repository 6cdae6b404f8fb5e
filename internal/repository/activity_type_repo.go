package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
)

// ActivityTypeRepository stores the per-course scoring configuration.
type ActivityTypeRepository interface {
	Configuration(ctx context.Context, courseID uint) ([]models.ActivityTypeConfig, error)
	Replace(ctx context.Context, courseID uint, entries []models.ActivityTypeConfig) error
}

type activityTypeRepository struct {
	db *gorm.DB
}

// NewActivityTypeRepository constructs the scoring configuration repository.
func NewActivityTypeRepository(db *gorm.DB) ActivityTypeRepository {
	return &activityTypeRepository{db: db}
}

func (r *activityTypeRepository) Configuration(ctx context.Context, courseID uint) ([]models.ActivityTypeConfig, error) {
	var entries []models.ActivityTypeConfig
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("kind ASC").
		Find(&entries).Error
	return entries, err
}

// Replace swaps the whole configuration set for a course in one transaction,
// so a concurrent scoring replay never sees a partially updated rule set.
func (r *activityTypeRepository) Replace(ctx context.Context, courseID uint, entries []models.ActivityTypeConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.ActivityTypeConfig{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].CourseID = courseID
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

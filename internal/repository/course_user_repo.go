package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
)

// CourseUserRepository reads enrollments and maintains the derived point
// totals and last-activity markers.
type CourseUserRepository interface {
	FindByID(ctx context.Context, id uint) (models.CourseUser, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.CourseUser, error)
	ListByIDs(ctx context.Context, courseID uint, ids []uint) ([]models.CourseUser, error)
	UpdatePoints(ctx context.Context, userID uint, points int) error
	TouchLastActivity(ctx context.Context, userID uint, at time.Time) error
	LastCourseActivity(ctx context.Context, courseID uint) (*time.Time, error)
}

type courseUserRepository struct {
	db *gorm.DB
}

// NewCourseUserRepository constructs the enrollment repository.
func NewCourseUserRepository(db *gorm.DB) CourseUserRepository {
	return &courseUserRepository{db: db}
}

func (r *courseUserRepository) FindByID(ctx context.Context, id uint) (models.CourseUser, error) {
	var user models.CourseUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.CourseUser{}, err
	}
	return user, nil
}

func (r *courseUserRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.CourseUser, error) {
	var users []models.CourseUser
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *courseUserRepository) ListByIDs(ctx context.Context, courseID uint, ids []uint) ([]models.CourseUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.CourseUser
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND id IN ?", courseID, ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *courseUserRepository) UpdatePoints(ctx context.Context, userID uint, points int) error {
	return r.db.WithContext(ctx).
		Model(&models.CourseUser{}).
		Where("id = ?", userID).
		UpdateColumn("points", points).
		Error
}

func (r *courseUserRepository) TouchLastActivity(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CourseUser{}).
		Where("id = ?", userID).
		UpdateColumn("last_activity_at", at).
		Error
}

// LastCourseActivity reads the most recent last-activity marker instead of
// scanning the activity log.
func (r *courseUserRepository) LastCourseActivity(ctx context.Context, courseID uint) (*time.Time, error) {
	var latest *time.Time
	err := r.db.WithContext(ctx).
		Model(&models.CourseUser{}).
		Where("course_id = ?", courseID).
		Select("MAX(last_activity_at)").
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}
	return latest, nil
}

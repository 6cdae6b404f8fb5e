package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
)

// ActivityMatch identifies an activity by exact field values. It drives the
// idempotent create-unless-exists path; only non-nil optional fields take
// part in the match.
type ActivityMatch struct {
	Kind       models.ActivityKind
	CourseID   uint
	UserID     uint
	ObjectType models.ObjectType
	ObjectID   *uint
	AssetID    *uint
	ActorID    *uint
}

// ActivityRepository is the append-only engagement log. Reciprocal pairs are
// inserted in one transaction so readers never observe half a pair.
type ActivityRepository interface {
	Append(ctx context.Context, activity *models.Activity) error
	AppendPair(ctx context.Context, primary, reciprocal *models.Activity) error
	FirstMatching(ctx context.Context, match ActivityMatch) (*models.Activity, error)
	FindByObject(ctx context.Context, objectType models.ObjectType, objectID uint) ([]models.Activity, error)
	DeleteByObject(ctx context.Context, objectType models.ObjectType, objectID uint) (int64, error)
	DeleteMatching(ctx context.Context, match ActivityMatch) (int64, error)
	ListForScoring(ctx context.Context, courseID uint, userIDs []uint) ([]models.Activity, error)
	ListChronological(ctx context.Context, courseID uint) ([]models.Activity, error)
	ListReciprocal(ctx context.Context, courseID uint) ([]models.Activity, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity log repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// AppendPair persists a primary activity and its generated counterpart as a
// single atomic unit, cross-linking ReciprocalID both ways. A failure on
// either half rolls back the whole pair.
func (r *activityRepository) AppendPair(ctx context.Context, primary, reciprocal *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(primary).Error; err != nil {
			return err
		}
		reciprocal.ReciprocalID = &primary.ID
		if err := tx.Create(reciprocal).Error; err != nil {
			return err
		}
		return tx.Model(&models.Activity{}).
			Where("id = ?", primary.ID).
			UpdateColumn("reciprocal_id", reciprocal.ID).
			Error
	})
}

func (r *activityRepository) FirstMatching(ctx context.Context, match ActivityMatch) (*models.Activity, error) {
	var activity models.Activity
	err := applyMatch(r.db.WithContext(ctx), match).First(&activity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) FindByObject(ctx context.Context, objectType models.ObjectType, objectID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Order("created_at ASC").
		Find(&activities).Error
	return activities, err
}

// DeleteByObject removes every activity referencing the object. Deleting a
// non-existent object is a no-op, not an error.
func (r *activityRepository) DeleteByObject(ctx context.Context, objectType models.ObjectType, objectID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Delete(&models.Activity{})
	return result.RowsAffected, result.Error
}

func (r *activityRepository) DeleteMatching(ctx context.Context, match ActivityMatch) (int64, error) {
	result := applyMatch(r.db.WithContext(ctx), match).Delete(&models.Activity{})
	return result.RowsAffected, result.Error
}

func (r *activityRepository) ListForScoring(ctx context.Context, courseID uint, userIDs []uint) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if len(userIDs) > 0 {
		query = query.Where("user_id IN ?", userIDs)
	}
	var activities []models.Activity
	err := query.Find(&activities).Error
	return activities, err
}

func (r *activityRepository) ListChronological(ctx context.Context, courseID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC, id ASC").
		Find(&activities).Error
	return activities, err
}

// ListReciprocal returns the activities that take part in user-to-user
// interactions: both halves of every reciprocal pair.
func (r *activityRepository) ListReciprocal(ctx context.Context, courseID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND reciprocal_id IS NOT NULL AND actor_id IS NOT NULL", courseID).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) ListForUser(ctx context.Context, userID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func applyMatch(query *gorm.DB, match ActivityMatch) *gorm.DB {
	query = query.Where("kind = ? AND course_id = ? AND user_id = ? AND object_type = ?",
		match.Kind, match.CourseID, match.UserID, match.ObjectType)
	if match.ObjectID != nil {
		query = query.Where("object_id = ?", *match.ObjectID)
	}
	if match.AssetID != nil {
		query = query.Where("asset_id = ?", *match.AssetID)
	}
	if match.ActorID != nil {
		query = query.Where("actor_id = ?", *match.ActorID)
	}
	return query
}

package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func ptrUint(v uint) *uint {
	return &v
}

// memoryActivityRepo mirrors the SQL repository's matching semantics so
// service tests exercise the same behavior without a database.
type memoryActivityRepo struct {
	nextID  uint
	clock   time.Time
	entries []models.Activity
}

func newMemoryActivityRepo() *memoryActivityRepo {
	return &memoryActivityRepo{clock: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memoryActivityRepo) stamp(activity *models.Activity) {
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	activity.ID = m.nextID
	activity.CreatedAt = m.clock
}

func (m *memoryActivityRepo) Append(ctx context.Context, activity *models.Activity) error {
	m.stamp(activity)
	m.entries = append(m.entries, *activity)
	return nil
}

func (m *memoryActivityRepo) AppendPair(ctx context.Context, primary, reciprocal *models.Activity) error {
	m.stamp(primary)
	reciprocal.ReciprocalID = &primary.ID
	m.stamp(reciprocal)
	primary.ReciprocalID = &reciprocal.ID
	m.entries = append(m.entries, *primary, *reciprocal)
	return nil
}

func (m *memoryActivityRepo) FirstMatching(ctx context.Context, match repository.ActivityMatch) (*models.Activity, error) {
	for _, entry := range m.entries {
		if matches(entry, match) {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryActivityRepo) FindByObject(ctx context.Context, objectType models.ObjectType, objectID uint) ([]models.Activity, error) {
	var found []models.Activity
	for _, entry := range m.entries {
		if entry.ObjectType == objectType && entry.ObjectID != nil && *entry.ObjectID == objectID {
			found = append(found, entry)
		}
	}
	return found, nil
}

func (m *memoryActivityRepo) DeleteByObject(ctx context.Context, objectType models.ObjectType, objectID uint) (int64, error) {
	kept := m.entries[:0]
	var removed int64
	for _, entry := range m.entries {
		if entry.ObjectType == objectType && entry.ObjectID != nil && *entry.ObjectID == objectID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
	return removed, nil
}

func (m *memoryActivityRepo) DeleteMatching(ctx context.Context, match repository.ActivityMatch) (int64, error) {
	kept := m.entries[:0]
	var removed int64
	for _, entry := range m.entries {
		if matches(entry, match) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
	return removed, nil
}

func (m *memoryActivityRepo) ListForScoring(ctx context.Context, courseID uint, userIDs []uint) ([]models.Activity, error) {
	var found []models.Activity
	for _, entry := range m.entries {
		if entry.CourseID != courseID {
			continue
		}
		if len(userIDs) > 0 && !containsUint(userIDs, entry.UserID) {
			continue
		}
		found = append(found, entry)
	}
	return found, nil
}

func (m *memoryActivityRepo) ListChronological(ctx context.Context, courseID uint) ([]models.Activity, error) {
	var found []models.Activity
	for _, entry := range m.entries {
		if entry.CourseID == courseID {
			found = append(found, entry)
		}
	}
	return found, nil
}

func (m *memoryActivityRepo) ListReciprocal(ctx context.Context, courseID uint) ([]models.Activity, error) {
	var found []models.Activity
	for _, entry := range m.entries {
		if entry.CourseID == courseID && entry.ReciprocalID != nil && entry.ActorID != nil {
			found = append(found, entry)
		}
	}
	return found, nil
}

func (m *memoryActivityRepo) ListForUser(ctx context.Context, userID uint) ([]models.Activity, error) {
	var found []models.Activity
	for _, entry := range m.entries {
		if entry.UserID == userID {
			found = append(found, entry)
		}
	}
	return found, nil
}

func matches(entry models.Activity, match repository.ActivityMatch) bool {
	if entry.Kind != match.Kind || entry.CourseID != match.CourseID ||
		entry.UserID != match.UserID || entry.ObjectType != match.ObjectType {
		return false
	}
	if match.ObjectID != nil && (entry.ObjectID == nil || *entry.ObjectID != *match.ObjectID) {
		return false
	}
	if match.AssetID != nil && (entry.AssetID == nil || *entry.AssetID != *match.AssetID) {
		return false
	}
	if match.ActorID != nil && (entry.ActorID == nil || *entry.ActorID != *match.ActorID) {
		return false
	}
	return true
}

func containsUint(values []uint, want uint) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

type memoryUserRepo struct {
	users map[uint]*models.CourseUser
}

func newMemoryUserRepo(users ...models.CourseUser) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[uint]*models.CourseUser, len(users))}
	for i := range users {
		user := users[i]
		repo.users[user.ID] = &user
	}
	return repo
}

func (m *memoryUserRepo) FindByID(ctx context.Context, id uint) (models.CourseUser, error) {
	if user, ok := m.users[id]; ok {
		return *user, nil
	}
	return models.CourseUser{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.CourseUser, error) {
	var found []models.CourseUser
	for id := uint(1); id <= uint(len(m.users))+100; id++ {
		if user, ok := m.users[id]; ok && user.CourseID == courseID {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (m *memoryUserRepo) ListByIDs(ctx context.Context, courseID uint, ids []uint) ([]models.CourseUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.CourseUser
	for _, id := range ids {
		if user, ok := m.users[id]; ok && user.CourseID == courseID {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (m *memoryUserRepo) UpdatePoints(ctx context.Context, userID uint, points int) error {
	if user, ok := m.users[userID]; ok {
		user.Points = points
	}
	return nil
}

func (m *memoryUserRepo) TouchLastActivity(ctx context.Context, userID uint, at time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.LastActivityAt = &at
	}
	return nil
}

func (m *memoryUserRepo) LastCourseActivity(ctx context.Context, courseID uint) (*time.Time, error) {
	var latest *time.Time
	for _, user := range m.users {
		if user.CourseID != courseID || user.LastActivityAt == nil {
			continue
		}
		if latest == nil || user.LastActivityAt.After(*latest) {
			latest = user.LastActivityAt
		}
	}
	return latest, nil
}

type memoryTypeRepo struct {
	entries map[uint][]models.ActivityTypeConfig
}

func newMemoryTypeRepo() *memoryTypeRepo {
	return &memoryTypeRepo{entries: make(map[uint][]models.ActivityTypeConfig)}
}

func (m *memoryTypeRepo) Configuration(ctx context.Context, courseID uint) ([]models.ActivityTypeConfig, error) {
	return append([]models.ActivityTypeConfig(nil), m.entries[courseID]...), nil
}

func (m *memoryTypeRepo) Replace(ctx context.Context, courseID uint, entries []models.ActivityTypeConfig) error {
	replacement := make([]models.ActivityTypeConfig, len(entries))
	for i, entry := range entries {
		entry.CourseID = courseID
		replacement[i] = entry
	}
	m.entries[courseID] = replacement
	return nil
}

func enabledRule(courseID uint, kind models.ActivityKind, points int) models.ActivityTypeConfig {
	return models.ActivityTypeConfig{CourseID: courseID, Kind: kind, Enabled: true, Points: points}
}

type memoryAssetRepo struct {
	nextID      uint
	assets      map[uint]*models.Asset
	authorships []models.AssetAuthorship
}

func newMemoryAssetRepo() *memoryAssetRepo {
	return &memoryAssetRepo{assets: make(map[uint]*models.Asset)}
}

func (m *memoryAssetRepo) Create(ctx context.Context, asset *models.Asset) error {
	m.nextID++
	asset.ID = m.nextID
	asset.CreatedAt = time.Now()
	stored := *asset
	m.assets[asset.ID] = &stored
	if asset.Type == models.AssetWhiteboard {
		for _, user := range asset.Users {
			m.authorships = append(m.authorships, models.AssetAuthorship{AssetID: asset.ID, UserID: user.ID})
		}
	}
	return nil
}

func (m *memoryAssetRepo) FindByID(ctx context.Context, id uint) (models.Asset, error) {
	if asset, ok := m.assets[id]; ok {
		return *asset, nil
	}
	return models.Asset{}, gorm.ErrRecordNotFound
}

func (m *memoryAssetRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Asset, error) {
	var found []models.Asset
	for id := uint(1); id <= m.nextID; id++ {
		if asset, ok := m.assets[id]; ok && asset.CourseID == courseID {
			found = append(found, *asset)
		}
	}
	return found, nil
}

func (m *memoryAssetRepo) UpdatePreview(ctx context.Context, asset *models.Asset) error {
	stored, ok := m.assets[asset.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.PreviewStatus = asset.PreviewStatus
	stored.ThumbnailURL = asset.ThumbnailURL
	stored.ImageURL = asset.ImageURL
	stored.PdfURL = asset.PdfURL
	stored.PreviewMetadata = asset.PreviewMetadata
	return nil
}

func (m *memoryAssetRepo) ListWhiteboardAuthorships(ctx context.Context, courseID uint) ([]models.AssetAuthorship, error) {
	var found []models.AssetAuthorship
	for _, authorship := range m.authorships {
		if asset, ok := m.assets[authorship.AssetID]; ok && asset.CourseID == courseID {
			found = append(found, authorship)
		}
	}
	return found, nil
}

type memoryCommentRepo struct {
	nextID   uint
	comments map[uint]*models.Comment
}

func newMemoryCommentRepo() *memoryCommentRepo {
	return &memoryCommentRepo{comments: make(map[uint]*models.Comment)}
}

func (m *memoryCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	m.nextID++
	comment.ID = m.nextID
	comment.CreatedAt = time.Now()
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *memoryCommentRepo) FindByID(ctx context.Context, id uint) (models.Comment, error) {
	if comment, ok := m.comments[id]; ok {
		return *comment, nil
	}
	return models.Comment{}, gorm.ErrRecordNotFound
}

func (m *memoryCommentRepo) ListByAsset(ctx context.Context, assetID uint) ([]models.Comment, error) {
	var found []models.Comment
	for id := uint(1); id <= m.nextID; id++ {
		if comment, ok := m.comments[id]; ok && comment.AssetID == assetID {
			found = append(found, *comment)
		}
	}
	return found, nil
}

func (m *memoryCommentRepo) Delete(ctx context.Context, id uint) error {
	delete(m.comments, id)
	return nil
}

type memoryWhiteboardRepo struct {
	nextID        uint
	nextElementID uint
	whiteboards   map[uint]*models.Whiteboard
	elements      []models.WhiteboardElement
}

func newMemoryWhiteboardRepo() *memoryWhiteboardRepo {
	return &memoryWhiteboardRepo{whiteboards: make(map[uint]*models.Whiteboard)}
}

func (m *memoryWhiteboardRepo) Create(ctx context.Context, whiteboard *models.Whiteboard) error {
	m.nextID++
	whiteboard.ID = m.nextID
	whiteboard.CreatedAt = time.Now()
	stored := *whiteboard
	m.whiteboards[whiteboard.ID] = &stored
	return nil
}

func (m *memoryWhiteboardRepo) FindByID(ctx context.Context, id uint) (models.Whiteboard, error) {
	if whiteboard, ok := m.whiteboards[id]; ok {
		return *whiteboard, nil
	}
	return models.Whiteboard{}, gorm.ErrRecordNotFound
}

func (m *memoryWhiteboardRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Whiteboard, error) {
	var found []models.Whiteboard
	for id := uint(1); id <= m.nextID; id++ {
		if whiteboard, ok := m.whiteboards[id]; ok && whiteboard.CourseID == courseID {
			found = append(found, *whiteboard)
		}
	}
	return found, nil
}

func (m *memoryWhiteboardRepo) AddElement(ctx context.Context, element *models.WhiteboardElement) error {
	m.nextElementID++
	element.ID = m.nextElementID
	element.CreatedAt = time.Now()
	m.elements = append(m.elements, *element)
	return nil
}

func (m *memoryWhiteboardRepo) ListElements(ctx context.Context, whiteboardID uint) ([]models.WhiteboardElement, error) {
	var found []models.WhiteboardElement
	for _, element := range m.elements {
		if element.WhiteboardID == whiteboardID {
			found = append(found, element)
		}
	}
	return found, nil
}

type memoryCourseRepo struct {
	courses map[uint]models.Course
}

func newMemoryCourseRepo(courses ...models.Course) *memoryCourseRepo {
	repo := &memoryCourseRepo{courses: make(map[uint]models.Course, len(courses))}
	for _, course := range courses {
		repo.courses[course.ID] = course
	}
	return repo
}

func (m *memoryCourseRepo) FindByID(ctx context.Context, id uint) (models.Course, error) {
	if course, ok := m.courses[id]; ok {
		return course, nil
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func student(id, courseID uint, name string, sections ...string) models.CourseUser {
	return models.CourseUser{
		ID:              id,
		CourseID:        courseID,
		CanvasUserID:    id + 1000,
		FullName:        name,
		Role:            models.RoleLearner,
		EnrollmentState: models.EnrollmentActive,
		Sections:        datatypes.NewJSONSlice(sections),
	}
}

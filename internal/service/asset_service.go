package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
)

// ErrUploadTooLarge flags an upload beyond the configured size limit.
var ErrUploadTooLarge = errors.New("upload exceeds maximum size")

// ErrUploadTypeNotAllowed flags a file type the library does not accept.
var ErrUploadTypeNotAllowed = errors.New("upload type not allowed")

var allowedUploadTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// FileStorage stores an uploaded file and returns its public URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssetService manages the course asset library and emits the engagement
// activities its operations generate.
type AssetService interface {
	CreateLink(ctx context.Context, courseID, userID uint, req dto.AssetCreateRequest) (dto.AssetResponse, error)
	Upload(ctx context.Context, courseID, userID uint, title string, file *multipart.FileHeader) (dto.AssetResponse, error)
	Get(ctx context.Context, assetID uint) (dto.AssetResponse, error)
	List(ctx context.Context, courseID uint) ([]dto.AssetResponse, error)
	Like(ctx context.Context, assetID, userID uint) error
	Unlike(ctx context.Context, assetID, userID uint) error
	RecordView(ctx context.Context, assetID, userID uint) (bool, error)
	CreateComment(ctx context.Context, assetID, userID uint, req dto.CommentCreateRequest) (dto.CommentResponse, error)
	DeleteComment(ctx context.Context, commentID, userID uint) error
}

type assetService struct {
	assets     repository.AssetRepository
	comments   repository.CommentRepository
	users      repository.CourseUserRepository
	activities ActivityService
	storage    FileStorage
	maxSize    int64
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewAssetService constructs the asset library service.
func NewAssetService(assets repository.AssetRepository, comments repository.CommentRepository, users repository.CourseUserRepository, activities ActivityService, storage FileStorage, maxUploadBytes int64, validate *validator.Validate, logger zerolog.Logger) AssetService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &assetService{
		assets:     assets,
		comments:   comments,
		users:      users,
		activities: activities,
		storage:    storage,
		maxSize:    maxUploadBytes,
		validator:  validate,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger.With().Str("component", "asset_service").Logger(),
	}
}

func (s *assetService) CreateLink(ctx context.Context, courseID, userID uint, req dto.AssetCreateRequest) (dto.AssetResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssetResponse{}, err
	}

	owner, err := s.findUser(ctx, userID)
	if err != nil {
		return dto.AssetResponse{}, err
	}

	asset := models.Asset{
		CourseID:      courseID,
		Type:          models.AssetLink,
		Title:         strings.TrimSpace(req.Title),
		URL:           strings.TrimSpace(req.URL),
		Description:   s.sanitizer.Sanitize(req.Description),
		PreviewStatus: models.PreviewPending,
		Users:         []models.CourseUser{owner},
	}
	if err := s.assets.Create(ctx, &asset); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("create link asset: %w", err)
	}

	if err := s.recordAssetActivity(ctx, models.KindAssetAdd, asset, userID, nil); err != nil {
		return dto.AssetResponse{}, err
	}
	return dto.NewAssetResponse(asset), nil
}

func (s *assetService) Upload(ctx context.Context, courseID, userID uint, title string, file *multipart.FileHeader) (dto.AssetResponse, error) {
	if file == nil {
		return dto.AssetResponse{}, errors.New("file is required")
	}
	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return dto.AssetResponse{}, ErrUploadTooLarge
	}

	owner, err := s.findUser(ctx, userID)
	if err != nil {
		return dto.AssetResponse{}, err
	}

	handle, err := file.Open()
	if err != nil {
		return dto.AssetResponse{}, fmt.Errorf("open upload: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return dto.AssetResponse{}, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	detected := strings.Split(mime.String(), ";")[0]
	if _, ok := allowedUploadTypes[detected]; !ok {
		observability.UploadRejected().WithLabelValues("type").Inc()
		return dto.AssetResponse{}, ErrUploadTypeNotAllowed
	}

	url, err := s.storage.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return dto.AssetResponse{}, fmt.Errorf("store upload: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = file.Filename
	}
	asset := models.Asset{
		CourseID:      courseID,
		Type:          models.AssetFile,
		Title:         strings.TrimSpace(title),
		URL:           url,
		MimeType:      detected,
		PreviewStatus: models.PreviewPending,
		Users:         []models.CourseUser{owner},
	}
	if err := s.assets.Create(ctx, &asset); err != nil {
		return dto.AssetResponse{}, fmt.Errorf("create file asset: %w", err)
	}

	if err := s.recordAssetActivity(ctx, models.KindAssetAdd, asset, userID, nil); err != nil {
		return dto.AssetResponse{}, err
	}
	return dto.NewAssetResponse(asset), nil
}

// Get loads one asset together with its comment thread in posting order.
func (s *assetService) Get(ctx context.Context, assetID uint) (dto.AssetResponse, error) {
	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return dto.AssetResponse{}, err
	}

	comments, err := s.comments.ListByAsset(ctx, assetID)
	if err != nil {
		return dto.AssetResponse{}, fmt.Errorf("list asset comments: %w", err)
	}

	response := dto.NewAssetResponse(asset)
	response.Comments = make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		response.Comments = append(response.Comments, dto.NewCommentResponse(comment))
	}
	return response, nil
}

func (s *assetService) List(ctx context.Context, courseID uint) ([]dto.AssetResponse, error) {
	assets, err := s.assets.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	responses := make([]dto.AssetResponse, 0, len(assets))
	for _, asset := range assets {
		responses = append(responses, dto.NewAssetResponse(asset))
	}
	return responses, nil
}

// Like records an asset_like for the liker and its get_asset_like
// counterpart for the asset owner, as one atomic pair. Liking twice is
// idempotent.
func (s *assetService) Like(ctx context.Context, assetID, userID uint) error {
	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if _, _, err := s.activities.AppendUnlessExists(ctx, s.assetActivityInput(models.KindAssetLike, asset, userID)); err != nil {
		return fmt.Errorf("record like: %w", err)
	}
	return nil
}

// Unlike removes the like activities (both halves of the pair) and
// recomputes the affected totals. Unliking something never liked is a no-op.
func (s *assetService) Unlike(ctx context.Context, assetID, userID uint) error {
	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if err := s.activities.DeleteMatching(ctx, s.assetActivityInput(models.KindAssetLike, asset, userID)); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

// RecordView stores an asset_view unless an identical view already exists,
// keeping repeated page loads from inflating scores. Returns whether a new
// activity was recorded.
func (s *assetService) RecordView(ctx context.Context, assetID, userID uint) (bool, error) {
	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return false, err
	}
	_, created, err := s.activities.AppendUnlessExists(ctx, s.assetActivityInput(models.KindAssetView, asset, userID))
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	return created, nil
}

func (s *assetService) CreateComment(ctx context.Context, assetID, userID uint, req dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CommentResponse{}, err
	}

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Body))
	if body == "" {
		return dto.CommentResponse{}, errors.New("comment body empty after sanitization")
	}

	var parent *models.Comment
	if req.ParentID != nil {
		found, err := s.comments.FindByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CommentResponse{}, fmt.Errorf("parent comment %d: %w", *req.ParentID, ErrInvalidReference)
			}
			return dto.CommentResponse{}, fmt.Errorf("load parent comment: %w", err)
		}
		if found.AssetID != assetID {
			return dto.CommentResponse{}, fmt.Errorf("parent comment belongs to another asset: %w", ErrInvalidReference)
		}
		parent = &found
	}

	comment := models.Comment{
		AssetID:  assetID,
		UserID:   userID,
		ParentID: req.ParentID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.CommentResponse{}, fmt.Errorf("create comment: %w", err)
	}

	commentID := comment.ID
	input := s.assetActivityInput(models.KindAssetComment, asset, userID)
	input.ObjectType = models.ObjectComment
	input.ObjectID = &commentID
	if _, err := s.activities.Append(ctx, input); err != nil {
		return dto.CommentResponse{}, fmt.Errorf("record comment activity: %w", err)
	}

	// A reply additionally credits the parent comment's author.
	if parent != nil && parent.UserID != userID {
		replyInput := input
		replyInput.Kind = models.KindAssetCommentReply
		parentAuthor := parent.UserID
		replyInput.ActorID = &parentAuthor
		if _, err := s.activities.Append(ctx, replyInput); err != nil {
			return dto.CommentResponse{}, fmt.Errorf("record reply activity: %w", err)
		}
	}

	return dto.NewCommentResponse(comment), nil
}

// DeleteComment removes the comment, every activity referencing it and
// recomputes the users whose totals could have changed.
func (s *assetService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, ErrInvalidReference)
		}
		return fmt.Errorf("load comment: %w", err)
	}

	asset, err := s.findAsset(ctx, comment.AssetID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		user, err := s.findUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.IsStudent() {
			return fmt.Errorf("comment %d belongs to another user: %w", commentID, ErrForbidden)
		}
	}

	affected := make(map[uint]struct{})
	records, err := s.activities.FindByObject(ctx, models.ObjectComment, commentID)
	if err != nil {
		return fmt.Errorf("load comment activities: %w", err)
	}
	for _, record := range records {
		affected[record.UserID] = struct{}{}
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	userIDs := make([]uint, 0, len(affected))
	for id := range affected {
		userIDs = append(userIDs, id)
	}
	return s.activities.DeleteByObject(ctx, models.ObjectComment, commentID, asset.CourseID, userIDs)
}

func (s *assetService) recordAssetActivity(ctx context.Context, kind models.ActivityKind, asset models.Asset, userID uint, metadata map[string]interface{}) error {
	input := s.assetActivityInput(kind, asset, userID)
	input.Metadata = metadata
	if _, err := s.activities.Append(ctx, input); err != nil {
		return fmt.Errorf("record %s activity: %w", kind, err)
	}
	return nil
}

// assetActivityInput builds the activity input for an action on an asset,
// pointing the reciprocal at the asset's primary author when that author is
// somebody else.
func (s *assetService) assetActivityInput(kind models.ActivityKind, asset models.Asset, userID uint) ActivityInput {
	assetID := asset.ID
	input := ActivityInput{
		Kind:       kind,
		CourseID:   asset.CourseID,
		UserID:     userID,
		ObjectType: models.ObjectAsset,
		ObjectID:   &assetID,
		AssetID:    &assetID,
	}
	if len(asset.Users) > 0 && asset.Users[0].ID != userID {
		owner := asset.Users[0].ID
		input.ActorID = &owner
	}
	return input
}

func (s *assetService) findAsset(ctx context.Context, assetID uint) (models.Asset, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Asset{}, fmt.Errorf("asset %d: %w", assetID, ErrInvalidReference)
		}
		return models.Asset{}, fmt.Errorf("load asset: %w", err)
	}
	return asset, nil
}

func (s *assetService) findUser(ctx context.Context, userID uint) (models.CourseUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CourseUser{}, fmt.Errorf("user %d: %w", userID, ErrInvalidReference)
		}
		return models.CourseUser{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

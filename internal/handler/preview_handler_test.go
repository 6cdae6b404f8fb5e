package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuskit/engage-api/internal/dto"
	"github.com/campuskit/engage-api/internal/handler"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/repository"
	"github.com/campuskit/engage-api/internal/service"
)

func setupPreviewApp(t *testing.T, secret string) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := setupHandlerDB(t)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	assetRepo := repository.NewAssetRepository(db)
	previewService := service.NewPreviewService(assetRepo, validate, logger)
	previewHandler := handler.NewPreviewHandler(previewService, secret, logger)

	app := fiber.New()
	previewHandler.Register(app.Group("/api/previews"))
	return app, db
}

func seedPendingAsset(t *testing.T, db *gorm.DB) models.Asset {
	t.Helper()
	asset := models.Asset{
		CourseID:      7,
		Type:          models.AssetLink,
		Title:         "CAP theorem notes",
		URL:           "https://example.test/cap",
		PreviewStatus: models.PreviewPending,
	}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func TestPreviewCallbackAppliesResult(t *testing.T) {
	app, db := setupPreviewApp(t, "callback-secret")
	asset := seedPendingAsset(t, db)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/previews/callback", "callback-secret", dto.PreviewCallbackRequest{
		ID:        asset.ID,
		Status:    models.PreviewDone,
		Thumbnail: "https://cdn.example.test/thumb.png",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated dto.AssetResponse
	decodeEnvelope(t, resp, &updated)
	require.Equal(t, models.PreviewDone, updated.PreviewStatus)

	var stored models.Asset
	require.NoError(t, db.First(&stored, asset.ID).Error)
	require.Equal(t, models.PreviewDone, stored.PreviewStatus)
	require.Equal(t, "https://cdn.example.test/thumb.png", stored.ThumbnailURL)
}

func TestPreviewCallbackRejectsWrongSecret(t *testing.T) {
	app, db := setupPreviewApp(t, "callback-secret")
	asset := seedPendingAsset(t, db)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/previews/callback", "wrong", dto.PreviewCallbackRequest{
		ID:     asset.ID,
		Status: models.PreviewDone,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPreviewCallbackDisabledWithoutSecret(t *testing.T) {
	app, db := setupPreviewApp(t, "")
	asset := seedPendingAsset(t, db)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/previews/callback", "", dto.PreviewCallbackRequest{
		ID:     asset.ID,
		Status: models.PreviewDone,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPreviewCallbackUnknownAsset(t *testing.T) {
	app, _ := setupPreviewApp(t, "callback-secret")

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/previews/callback", "callback-secret", dto.PreviewCallbackRequest{
		ID:     404,
		Status: models.PreviewDone,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

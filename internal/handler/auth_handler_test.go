package handler_test

import (
	"net/http"
	"net/http/httptest"
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

func setupAuthApp(t *testing.T, cfg service.AuthConfig) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := setupHandlerDB(t)

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	userRepo := repository.NewCourseUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg, validate, logger)
	authHandler := handler.NewAuthHandler(authService, cfg.JWTSecret, logger)

	app := fiber.New()
	authHandler.Register(app.Group("/api/auth"))
	return app, db
}

func TestDevAuthLoginHiddenWhenDisabled(t *testing.T) {
	app, _ := setupAuthApp(t, service.AuthConfig{JWTSecret: testJWTSecret})

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/auth/dev_auth_login", "",
		dto.DevAuthLoginRequest{UserID: 1, Password: "letmein"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDevAuthLoginAndProfileFlow(t *testing.T) {
	app, db := setupAuthApp(t, service.AuthConfig{
		JWTSecret:       testJWTSecret,
		DevAuthEnabled:  true,
		DevAuthPassword: "letmein",
	})
	require.NoError(t, db.Create(&models.CourseUser{ID: 1, CourseID: 7, CanvasUserID: 1001, FullName: "Ada Lovelace", Role: models.RoleLearner, EnrollmentState: models.EnrollmentActive}).Error)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/auth/dev_auth_login", "",
		dto.DevAuthLoginRequest{UserID: 1, Password: "letmein"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth dto.AuthResponse
	decodeEnvelope(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	require.Equal(t, uint(1), auth.User.ID)

	resp, err = app.Test(authedRequest(t, http.MethodGet, "/api/auth/profile", auth.Token, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile dto.ProfileResponse
	decodeEnvelope(t, resp, &profile)
	require.Equal(t, "Ada Lovelace", profile.FullName)
	require.Equal(t, uint(7), profile.CourseID)
}

func TestDevAuthLoginWrongPassword(t *testing.T) {
	app, db := setupAuthApp(t, service.AuthConfig{
		JWTSecret:       testJWTSecret,
		DevAuthEnabled:  true,
		DevAuthPassword: "letmein",
	})
	require.NoError(t, db.Create(&models.CourseUser{ID: 1, CourseID: 7, CanvasUserID: 1001, FullName: "Ada Lovelace", Role: models.RoleLearner, EnrollmentState: models.EnrollmentActive}).Error)

	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/auth/dev_auth_login", "",
		dto.DevAuthLoginRequest{UserID: 1, Password: "guess"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileRequiresToken(t *testing.T) {
	app, _ := setupAuthApp(t, service.AuthConfig{JWTSecret: testJWTSecret})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	app, _ := setupAuthApp(t, service.AuthConfig{JWTSecret: testJWTSecret})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

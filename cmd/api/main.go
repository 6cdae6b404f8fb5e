package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuskit/engage-api/internal/config"
	"github.com/campuskit/engage-api/internal/database"
	"github.com/campuskit/engage-api/internal/handler"
	"github.com/campuskit/engage-api/internal/middleware"
	"github.com/campuskit/engage-api/internal/models"
	"github.com/campuskit/engage-api/internal/observability"
	"github.com/campuskit/engage-api/internal/repository"
	"github.com/campuskit/engage-api/internal/router"
	"github.com/campuskit/engage-api/internal/service"
	cloud "github.com/campuskit/engage-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.CourseUser{},
		&models.Activity{},
		&models.ActivityTypeConfig{},
		&models.Asset{},
		&models.Comment{},
		&models.Whiteboard{},
		&models.WhiteboardElement{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	courseUserRepo := repository.NewCourseUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	activityTypeRepo := repository.NewActivityTypeRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	whiteboardRepo := repository.NewWhiteboardRepository(db)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var streamService service.ActivityStreamService
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		streamService = service.NewActivityStreamService(natsConn, cfg.ActivityStreamSubject, logger)
	} else {
		streamService = service.NewActivityStreamService(nil, cfg.ActivityStreamSubject, logger)
	}
	streamService.Start(rootCtx)

	pointsService := service.NewPointsService(courseUserRepo, activityRepo, activityTypeRepo, logger)
	activityService := service.NewActivityService(activityRepo, courseUserRepo, pointsService, streamService, logger)
	configService := service.NewActivityConfigService(activityTypeRepo, pointsService, validate, logger)
	interactionService := service.NewInteractionGraphService(courseUserRepo, activityRepo, assetRepo, logger)
	reportService := service.NewReportService(courseRepo, courseUserRepo, activityRepo, activityTypeRepo, logger)
	leaderboardService := service.NewLeaderboardService(courseUserRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	assetService := service.NewAssetService(assetRepo, commentRepo, courseUserRepo, activityService, uploader, cfg.MaxUploadBytes, validate, logger)
	whiteboardService := service.NewWhiteboardService(whiteboardRepo, assetRepo, courseUserRepo, activityService, validate, logger)
	previewService := service.NewPreviewService(assetRepo, validate, logger)
	authService := service.NewAuthService(courseUserRepo, service.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.JWTTokenTTL,
		DevAuthEnabled:  cfg.DevAuthEnabled,
		DevAuthPassword: cfg.DevAuthPassword,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, cfg.JWTSecret, logger),
		AssetHandler:      handler.NewAssetHandler(assetService, logger),
		WhiteboardHandler: handler.NewWhiteboardHandler(whiteboardService, logger),
		EngagementHandler: handler.NewEngagementHandler(configService, pointsService, interactionService, reportService, leaderboardService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, streamService, logger),
		PreviewHandler:    handler.NewPreviewHandler(previewService, cfg.PreviewCallbackSecret, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(rootCtx, app)
}

func waitForShutdown(rootCtx context.Context, app *fiber.App) {
	<-rootCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campuskit/engage-api/internal/config"
	"github.com/campuskit/engage-api/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AssetHandler      *handler.AssetHandler
	WhiteboardHandler *handler.WhiteboardHandler
	EngagementHandler *handler.EngagementHandler
	ActivityHandler   *handler.ActivityHandler
	PreviewHandler    *handler.PreviewHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := app.Group("/api/auth")
		deps.AuthHandler.Register(auth)
	}

	// Preview callbacks authenticate with a shared secret, not a JWT.
	if deps.PreviewHandler != nil {
		previews := app.Group("/api/previews")
		deps.PreviewHandler.Register(previews)
	}

	protected := app.Group("/api", jwtMiddleware)
	course := protected.Group("/courses/:courseId")

	if deps.AssetHandler != nil {
		deps.AssetHandler.Register(course, protected)
	}
	if deps.WhiteboardHandler != nil {
		deps.WhiteboardHandler.Register(course)
	}
	if deps.EngagementHandler != nil {
		deps.EngagementHandler.Register(course)
	}
	if deps.ActivityHandler != nil {
		users := protected.Group("/users")
		deps.ActivityHandler.RegisterUserRoutes(users)
		deps.ActivityHandler.RegisterCourseRoutes(course)
	}
}

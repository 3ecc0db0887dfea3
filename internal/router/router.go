package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/openfeedhq/feedengine/internal/fanout"
	"github.com/openfeedhq/feedengine/internal/feed"
	"github.com/openfeedhq/feedengine/internal/handlers"
	"github.com/openfeedhq/feedengine/internal/middleware"
	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/registry"
	"github.com/openfeedhq/feedengine/internal/repositories"
	"github.com/openfeedhq/feedengine/internal/tasks"
	"github.com/openfeedhq/feedengine/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// Returns the task runner so the caller can drain it on shutdown.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, reg *registry.Registry, cfg *config.Config, logger zerolog.Logger) *tasks.Runner {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Action{},
		&models.Follow{},
		&models.Stream{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	actionRepo := repositories.NewPostgresActionRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	streamRepo := repositories.NewPostgresStreamRepository(pgdb)

	// --- Core services ---
	feedService := feed.NewService(actionRepo, streamRepo, followRepo, reg)
	engine := fanout.New(actionRepo, followRepo, streamRepo, userRepo, reg, fanout.Options{
		GlobalMode: fanout.GlobalMode(cfg.FanoutGlobalMode),
		Logger:     logger,
	})
	runner := tasks.NewRunner(engine, cfg.FanoutWorkers, cfg.FanoutBatchSize, logger)

	// --- Routes ---
	public := e.Group("/api")
	protected := e.Group("/api", middleware.JWTAuthMiddleware())

	actionHandler := handlers.NewActionHandler(actionRepo, feedService, runner)
	actionHandler.RegisterActionRoutes(public, protected)

	feedHandler := handlers.NewFeedHandler(feedService)
	feedHandler.RegisterFeedRoutes(public, protected)

	followHandler := handlers.NewFollowHandler(followRepo)
	followHandler.RegisterFollowRoutes(public, protected)

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(public)

	return runner
}

package main

import (
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openfeedhq/feedengine/internal/registry"
	"github.com/openfeedhq/feedengine/internal/router"
	"github.com/openfeedhq/feedengine/pkg/config"
	"github.com/openfeedhq/feedengine/validators"
)

// registerHandlers binds the application's action types. Registration is
// first-write-wins and happens exactly once, here.
func registerHandlers(reg *registry.Registry) {
	reg.MustRegister("post.created", registry.Handler{Verb: "posted"})
	reg.MustRegister("post.liked", registry.Handler{Verb: "liked"})
	reg.MustRegister("comment.created", registry.Handler{Verb: "commented on"})
	reg.MustRegister("user.followed", registry.Handler{Verb: "started following"})
	reg.MustRegister("announcement.published", registry.Handler{Verb: "announced"})
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB() // Ensure database connection is closed when main exits

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Handler registry, populated once at startup and read-only after
	reg := registry.New()
	registerHandlers(reg)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	runner := router.SetupRoutes(e, db.Postgres, reg, cfg, logger)
	defer runner.Stop()

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

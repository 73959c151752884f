package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"mostaqbal-lab/internal/adapters/http/middleware"
	"mostaqbal-lab/internal/adapters/http/routes"
	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "mostaqbal-lab/docs" // Swagger docs
)

// @title Mostaqbal Lab API
// @version 1.0
// @description Medical laboratory portal: patient registry, test results, home-visit intake and accounting.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@lab-mostaqbal.web.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.lab-mostaqbal.web.app
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the bootstrap admin and the test catalog
	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Scheduled jobs: token purge and stale-outreach reminders
	cronService := services.NewCronService(
		repositories.NewRefreshTokenRepository(db),
		repositories.NewStaffNotificationRepository(db),
		cfg,
	)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron jobs: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Mostaqbal Lab API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    int(cfg.Lab.MaxFileSizeBytes) * 2, // base64 overhead
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}

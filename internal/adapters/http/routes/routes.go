package routes

import (
	"mostaqbal-lab/internal/adapters/http/handlers"
	"mostaqbal-lab/internal/adapters/http/middleware"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	patientRepo := repositories.NewPatientRepository(db)
	testRepo := repositories.NewLabTestRepository(db)
	blobRepo := repositories.NewBlobRepository(db)
	templateRepo := repositories.NewTestTemplateRepository(db)
	staffNotifRepo := repositories.NewStaffNotificationRepository(db)
	clientNotifRepo := repositories.NewClientNotificationRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, refreshTokenRepo, cfg)
	patientService := services.NewPatientService(patientRepo, userRepo, testRepo, cfg)
	testService := services.NewLabTestService(testRepo, patientRepo, blobRepo, templateRepo, clientNotifRepo, cfg)
	intakeService := services.NewIntakeService(patientRepo, userRepo, testRepo, staffNotifRepo, cfg)
	notifService := services.NewNotificationService(staffNotifRepo, clientNotifRepo, testRepo, cfg)
	ledgerService := services.NewLedgerService(ledgerRepo)
	dashboardService := services.NewDashboardService(patientRepo, testRepo, staffNotifRepo, ledgerRepo)
	clientService := services.NewClientService(testRepo, blobRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	patientHandler := handlers.NewPatientHandler(patientService)
	testHandler := handlers.NewLabTestHandler(testService)
	intakeHandler := handlers.NewIntakeHandler(intakeService)
	notifHandler := handlers.NewNotificationHandler(notifService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	clientHandler := handlers.NewClientHandler(clientService, notifService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Check)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public intake (no auth, tight rate limit)
	intakeRoutes := apiV1.Group("/intake")
	intakeRoutes.Post("/home-visit", middleware.IntakeRateLimiter(), intakeHandler.RequestHomeVisit)

	// Account management (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Patient registry (staff)
	patientRoutes := apiV1.Group("/patients")
	patientRoutes.Use(middleware.AuthMiddleware(cfg))
	patientRoutes.Use(middleware.StaffOnly())
	setupPatientRoutes(patientRoutes, patientHandler, testHandler)

	// Test lifecycle (staff)
	testRoutes := apiV1.Group("/tests")
	testRoutes.Use(middleware.AuthMiddleware(cfg))
	testRoutes.Use(middleware.StaffOnly())
	setupTestRoutes(testRoutes, testHandler)

	// Outreach queue (staff)
	notifRoutes := apiV1.Group("/notifications")
	notifRoutes.Use(middleware.AuthMiddleware(cfg))
	notifRoutes.Use(middleware.StaffOnly())
	setupNotificationRoutes(notifRoutes, notifHandler)

	// Accounting (staff; entry deletion admin only)
	ledgerRoutes := apiV1.Group("/ledger")
	ledgerRoutes.Use(middleware.AuthMiddleware(cfg))
	ledgerRoutes.Use(middleware.StaffOnly())
	setupLedgerRoutes(ledgerRoutes, ledgerHandler)

	// Dashboard (staff)
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.StaffOnly())
	dashboardRoutes.Get("/stats", dashboardHandler.Stats)

	// Patient portal (clients)
	clientRoutes := apiV1.Group("/client")
	clientRoutes.Use(middleware.AuthMiddleware(cfg))
	clientRoutes.Use(middleware.ClientOnly())
	setupClientRoutes(clientRoutes, clientHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures account management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Post("/", handler.CreateStaff)
	router.Get("/", handler.List)
	router.Patch("/:id/active", handler.SetActive)
	router.Patch("/:id/password", handler.ResetPassword)
	router.Delete("/:id", handler.Delete)
}

// setupPatientRoutes configures patient registry routes (staff)
func setupPatientRoutes(router fiber.Router, handler *handlers.PatientHandler, testHandler *handlers.LabTestHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
	router.Get("/:id/tests", handler.History)
	router.Post("/:patientId/files", testHandler.UploadGeneral)
}

// setupTestRoutes configures test lifecycle routes (staff)
func setupTestRoutes(router fiber.Router, handler *handlers.LabTestHandler) {
	// Catalog is cacheable; results are not
	router.Get("/templates", middleware.CatalogCache(), handler.Templates)

	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Post("/:id/result", handler.RecordResult)
	router.Post("/:id/files", handler.Upload)
	router.Get("/:id/files/:fileId", middleware.NoCacheHeaders(), handler.Download)
	router.Get("/:id/interpretation", handler.Interpret)
	router.Patch("/:id/status", handler.UpdateStatus)
}

// setupNotificationRoutes configures outreach queue routes (staff)
func setupNotificationRoutes(router fiber.Router, handler *handlers.NotificationHandler) {
	router.Get("/", handler.List)
	router.Get("/pending-count", handler.PendingCount)
	router.Get("/tests/:id/whatsapp", handler.TestLink)
	router.Post("/:id/contacted", handler.MarkContacted)
}

// setupLedgerRoutes configures accounting routes (staff)
func setupLedgerRoutes(router fiber.Router, handler *handlers.LedgerHandler) {
	router.Post("/entries", handler.CreateEntry)
	router.Get("/entries", handler.ListEntries)
	router.Delete("/entries/:id", middleware.AdminOnly(), handler.DeleteEntry)
	router.Get("/summary", handler.Summary)
	router.Post("/needs", handler.CreateNeed)
	router.Get("/needs", handler.ListNeeds)
}

// setupClientRoutes configures patient portal routes (clients)
func setupClientRoutes(router fiber.Router, handler *handlers.ClientHandler) {
	router.Get("/tests", handler.MyTests)
	router.Get("/results", handler.MyResults)
	router.Get("/tests/:id/files/:fileId", middleware.NoCacheHeaders(), handler.MyFile)
	router.Get("/notifications", handler.Notifications)
	router.Post("/notifications/:id/seen", handler.MarkSeen)
}

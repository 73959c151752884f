package handlers

import (
	"time"

	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        *gorm.DB
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// Root returns a minimal landing payload
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.Success(c, "Mostaqbal Lab API", fiber.Map{
		"docs":   "/swagger/index.html",
		"health": "/health",
	})
}

// APIInfo returns the API version info
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return response.Success(c, "API v1", fiber.Map{
		"version": "1.0",
	})
}

// Check returns service health
// @Summary Health check
// @Description Returns service and database health
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "up"
	if err := config.PingDatabase(h.db); err != nil {
		dbStatus = "down"
	}

	payload := fiber.Map{
		"status":   "ok",
		"database": dbStatus,
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
	}

	if dbStatus == "down" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.Response{
			Success: false,
			Error:   "database unreachable",
			Data:    payload,
		})
	}

	return response.Success(c, "Service healthy", payload)
}

package handlers

import (
	"errors"
	"strconv"

	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClientHandler handles the patient portal endpoints. Every route reads
// the patientID local; a patient only ever sees their own data.
type ClientHandler struct {
	clientService *services.ClientService
	notifService  *services.NotificationService
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService *services.ClientService, notifService *services.NotificationService) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		notifService:  notifService,
	}
}

// MyTests lists the patient's tests
// @Summary My tests
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /client/tests [get]
func (h *ClientHandler) MyTests(c *fiber.Ctx) error {
	patientID := c.Locals("patientID").(uint)

	tests, err := h.clientService.MyTests(c.Context(), patientID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list tests")
	}

	return response.Success(c, "Tests retrieved successfully", tests)
}

// MyResults returns the patient's result files grouped by day
// @Summary My results
// @Description Result files grouped by upload day, newest first
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /client/results [get]
func (h *ClientHandler) MyResults(c *fiber.Ctx) error {
	patientID := c.Locals("patientID").(uint)

	groups, err := h.clientService.MyResults(c.Context(), patientID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list results")
	}

	return response.Success(c, "Results retrieved successfully", groups)
}

// MyFile downloads one of the patient's result files
// @Summary Download my result file
// @Tags Client
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param fileId path string true "File public ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /client/tests/{id}/files/{fileId} [get]
func (h *ClientHandler) MyFile(c *fiber.Ctx) error {
	patientID := c.Locals("patientID").(uint)

	file, content, err := h.clientService.MyFile(c.Context(), patientID, c.Params("id"), c.Params("fileId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound), errors.Is(err, services.ErrFileNotFound):
			return response.NotFound(c, "File not found")
		default:
			return response.InternalServerError(c, "Failed to download file")
		}
	}

	c.Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	return c.Send(content)
}

// Notifications lists unseen completion notices
// @Summary My notifications
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /client/notifications [get]
func (h *ClientHandler) Notifications(c *fiber.Ctx) error {
	patientID := c.Locals("patientID").(uint)

	notifs, err := h.notifService.ListUnseenForPatient(c.Context(), patientID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", notifs)
}

// MarkSeen acknowledges a completion notice
// @Summary Acknowledge notification
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /client/notifications/{id}/seen [post]
func (h *ClientHandler) MarkSeen(c *fiber.Ctx) error {
	patientID := c.Locals("patientID").(uint)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notifService.MarkSeen(c.Context(), patientID, uint(id)); err != nil {
		return response.InternalServerError(c, "Failed to acknowledge notification")
	}

	return response.Success(c, "Notification acknowledged", nil)
}

package handlers

import (
	"errors"

	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/pagination"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles the staff outreach queue endpoints
type NotificationHandler struct {
	notifService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifService: notifService}
}

// List lists the outreach queue
// @Summary List outreach queue
// @Description List outreach entries with their WhatsApp deep links
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (new|contacted)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	entries, total, err := h.notifService.ListOutreach(
		c.Context(),
		domain.OutreachStatus(c.Query("status")),
		params.Offset,
		params.Limit,
	)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(entries, params, total))
}

// MarkContacted marks an outreach entry contacted
// @Summary Mark patient contacted
// @Description Mark outreach entry contacted; the underlying request moves to sent
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/contacted [post]
func (h *NotificationHandler) MarkContacted(c *fiber.Ctx) error {
	entry, err := h.notifService.MarkContacted(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotificationNotFound):
			return response.NotFound(c, "Notification not found")
		default:
			return response.InternalServerError(c, "Failed to update notification")
		}
	}

	return response.Success(c, "Marked as contacted", entry)
}

// TestLink returns a prefilled WhatsApp deep link for a test's patient
// @Summary WhatsApp link for a test
// @Description Build a wa.me deep link from a message template (received|ready|followup); delivery stays manual
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param template query string false "Message template" default(ready)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/tests/{id}/whatsapp [get]
func (h *NotificationHandler) TestLink(c *fiber.Ctx) error {
	link, err := h.notifService.TestLink(c.Context(), c.Params("id"), c.Query("template"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound):
			return response.NotFound(c, "Lab test not found")
		case errors.Is(err, services.ErrUnknownTemplate):
			return response.BadRequest(c, "Unknown message template")
		default:
			return response.InternalServerError(c, "Failed to build link")
		}
	}

	return response.Success(c, "Link built successfully", fiber.Map{
		"whatsapp_link": link,
	})
}

// PendingCount returns the number of uncontacted entries
// @Summary Pending outreach count
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notifications/pending-count [get]
func (h *NotificationHandler) PendingCount(c *fiber.Ctx) error {
	count, err := h.notifService.CountPending(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}

	return response.Success(c, "Pending count retrieved successfully", fiber.Map{
		"pending": count,
	})
}

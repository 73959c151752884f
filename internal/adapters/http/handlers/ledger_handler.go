package handlers

import (
	"errors"

	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/pagination"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LedgerHandler handles the accounting endpoints
type LedgerHandler struct {
	ledgerService *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// NeedRequest represents a supply-need body
type NeedRequest struct {
	Note string `json:"note"`
}

// CreateEntry records an income or expense entry
// @Summary Record ledger entry
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEntryInput true "Entry data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /ledger/entries [post]
func (h *LedgerHandler) CreateEntry(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateEntryInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	entry, err := h.ledgerService.CreateEntry(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEntry),
			errors.Is(err, services.ErrLabelRequired),
			errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to record entry")
		}
	}

	return response.Created(c, "Entry recorded successfully", entry)
}

// ListEntries lists ledger entries
// @Summary List ledger entries
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param type query string false "Entry type filter (income|expense)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /ledger/entries [get]
func (h *LedgerHandler) ListEntries(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	entries, total, err := h.ledgerService.ListEntries(
		c.Context(),
		domain.EntryType(c.Query("type")),
		params.Offset,
		params.Limit,
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEntry) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to list entries")
	}

	return response.Success(c, "Entries retrieved successfully", pagination.NewResponse(entries, params, total))
}

// DeleteEntry removes a ledger entry
// @Summary Delete ledger entry
// @Description Delete an entry; the balance self-corrects on the next summary
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /ledger/entries/{id} [delete]
func (h *LedgerHandler) DeleteEntry(c *fiber.Ctx) error {
	if err := h.ledgerService.DeleteEntry(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			return response.NotFound(c, "Entry not found")
		}
		return response.InternalServerError(c, "Failed to delete entry")
	}

	return response.Success(c, "Entry deleted successfully", nil)
}

// Summary returns the recomputed totals
// @Summary Ledger summary
// @Description Income, expense and balance totals recomputed from all entries
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /ledger/summary [get]
func (h *LedgerHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.ledgerService.Summary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute summary")
	}

	return response.Success(c, "Summary computed successfully", summary)
}

// CreateNeed records a supply need
// @Summary Record supply need
// @Tags Ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NeedRequest true "Need data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /ledger/needs [post]
func (h *LedgerHandler) CreateNeed(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req NeedRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	need, err := h.ledgerService.CreateNeed(c.Context(), userID, req.Note)
	if err != nil {
		if errors.Is(err, services.ErrNoteRequired) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to record need")
	}

	return response.Created(c, "Need recorded successfully", need)
}

// ListNeeds lists supply needs
// @Summary List supply needs
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /ledger/needs [get]
func (h *LedgerHandler) ListNeeds(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	needs, total, err := h.ledgerService.ListNeeds(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list needs")
	}

	return response.Success(c, "Needs retrieved successfully", pagination.NewResponse(needs, params, total))
}

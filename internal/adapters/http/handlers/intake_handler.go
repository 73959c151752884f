package handlers

import (
	"errors"

	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// IntakeHandler handles the public home-visit request form
type IntakeHandler struct {
	intakeService *services.IntakeService
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *services.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// RequestHomeVisit submits a home-visit request
// @Summary Request home visit
// @Description Public intake: registers the patient, files the request and returns the generated portal credential
// @Tags Intake
// @Accept json
// @Produce json
// @Param body body services.HomeVisitInput true "Request data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /intake/home-visit [post]
func (h *IntakeHandler) RequestHomeVisit(c *fiber.Ctx) error {
	var input services.HomeVisitInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.intakeService.RequestHomeVisit(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNameTooShort),
			errors.Is(err, services.ErrInvalidAge),
			errors.Is(err, services.ErrInvalidGender),
			errors.Is(err, services.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "A request for this phone number already exists")
		default:
			return response.InternalServerError(c, "Failed to submit request")
		}
	}

	return response.Created(c, "Home visit requested successfully", result)
}

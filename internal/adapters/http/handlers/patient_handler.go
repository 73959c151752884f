package handlers

import (
	"errors"

	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/pagination"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PatientHandler handles the patient registry endpoints (staff only)
type PatientHandler struct {
	patientService *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// Create registers a patient
// @Summary Register patient
// @Description Register a patient and provision their portal credential
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePatientInput true "Patient data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patients [post]
func (h *PatientHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePatientInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.patientService.Create(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNameRequired),
			errors.Is(err, services.ErrInvalidAge),
			errors.Is(err, services.ErrInvalidGender),
			errors.Is(err, services.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "Username is already taken")
		default:
			return response.InternalServerError(c, "Failed to register patient")
		}
	}

	return response.Created(c, "Patient registered successfully", result)
}

// Get returns a patient
// @Summary Get patient
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{id} [get]
func (h *PatientHandler) Get(c *fiber.Ctx) error {
	patient, err := h.patientService.GetByPublicID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return response.NotFound(c, "Patient not found")
		}
		return response.InternalServerError(c, "Failed to get patient")
	}

	return response.Success(c, "Patient retrieved successfully", patient)
}

// List lists patients
// @Summary List patients
// @Description List patients; q filters by name or phone substring
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /patients [get]
func (h *PatientHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	patients, total, err := h.patientService.List(c.Context(), c.Query("q"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list patients")
	}

	return response.Success(c, "Patients retrieved successfully", pagination.NewResponse(patients, params, total))
}

// Update updates patient details
// @Summary Update patient
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient public ID"
// @Param body body services.UpdatePatientInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{id} [put]
func (h *PatientHandler) Update(c *fiber.Ctx) error {
	var input services.UpdatePatientInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	patient, err := h.patientService.Update(c.Context(), c.Params("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPatientNotFound):
			return response.NotFound(c, "Patient not found")
		case errors.Is(err, services.ErrInvalidAge),
			errors.Is(err, services.ErrInvalidGender),
			errors.Is(err, services.ErrInvalidPhone):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update patient")
		}
	}

	return response.Success(c, "Patient updated successfully", patient)
}

// Delete removes a patient
// @Summary Delete patient
// @Description Delete a patient and their portal credential. Lab tests are retained.
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{id} [delete]
func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	if err := h.patientService.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return response.NotFound(c, "Patient not found")
		}
		return response.InternalServerError(c, "Failed to delete patient")
	}

	return response.Success(c, "Patient deleted successfully", nil)
}

// History lists a patient's tests
// @Summary Patient test history
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{id}/tests [get]
func (h *PatientHandler) History(c *fiber.Ctx) error {
	tests, err := h.patientService.History(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return response.NotFound(c, "Patient not found")
		}
		return response.InternalServerError(c, "Failed to get patient history")
	}

	return response.Success(c, "Patient history retrieved successfully", tests)
}

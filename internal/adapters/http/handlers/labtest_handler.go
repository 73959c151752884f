package handlers

import (
	"errors"

	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/core/services"
	"mostaqbal-lab/internal/pkg/pagination"
	"mostaqbal-lab/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LabTestHandler handles the test lifecycle endpoints (staff only)
type LabTestHandler struct {
	testService *services.LabTestService
}

// NewLabTestHandler creates a new lab test handler
func NewLabTestHandler(testService *services.LabTestService) *LabTestHandler {
	return &LabTestHandler{testService: testService}
}

// UploadRequest represents a result file upload body
type UploadRequest struct {
	Files []services.FileUpload `json:"files"`
}

// StatusRequest represents a status change body
type StatusRequest struct {
	Status  domain.TestStatus `json:"status"`
	Version int               `json:"version"`
}

// Create registers a lab test
// @Summary Register lab test
// @Description Register a test for a patient from the catalog or free text
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTestInput true "Test data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tests [post]
func (h *LabTestHandler) Create(c *fiber.Ctx) error {
	var input services.CreateTestInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.Create(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPatientNotFound):
			return response.NotFound(c, "Patient not found")
		case errors.Is(err, services.ErrTemplateNotFound):
			return response.NotFound(c, "Test template not found")
		case errors.Is(err, services.ErrTestNameRequired), errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to register test")
		}
	}

	return response.Created(c, "Test registered successfully", test)
}

// Get returns a test with its files
// @Summary Get lab test
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tests/{id} [get]
func (h *LabTestHandler) Get(c *fiber.Ctx) error {
	test, err := h.testService.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrTestNotFound) {
			return response.NotFound(c, "Test not found")
		}
		return response.InternalServerError(c, "Failed to get test")
	}

	return response.Success(c, "Test retrieved successfully", test)
}

// List lists tests
// @Summary List lab tests
// @Description List tests filtered by status and patient name/phone
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /tests [get]
func (h *LabTestHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	tests, total, err := h.testService.List(
		c.Context(),
		domain.TestStatus(c.Query("status")),
		c.Query("q"),
		params.Offset,
		params.Limit,
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return response.BadRequest(c, "Invalid test status")
		}
		return response.InternalServerError(c, "Failed to list tests")
	}

	return response.Success(c, "Tests retrieved successfully", pagination.NewResponse(tests, params, total))
}

// RecordResult records a numeric result
// @Summary Record test result
// @Description Record a numeric result and complete the test
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param body body services.RecordResultInput true "Result data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tests/{id}/result [post]
func (h *LabTestHandler) RecordResult(c *fiber.Ctx) error {
	var input services.RecordResultInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.RecordResult(c.Context(), c.Params("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound):
			return response.NotFound(c, "Test not found")
		case errors.Is(err, services.ErrResultRequired):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrStaleVersion):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to record result")
		}
	}

	return response.Success(c, "Result recorded successfully", test)
}

// Upload appends result files to a test
// @Summary Upload result files
// @Description Append base64-encoded pdf/image files and complete the test
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param body body UploadRequest true "Files"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 413 {object} response.Response
// @Router /tests/{id}/files [post]
func (h *LabTestHandler) Upload(c *fiber.Ctx) error {
	var req UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.UploadResults(c.Context(), c.Params("id"), req.Files)
	if err != nil {
		return h.uploadError(c, err)
	}

	return response.Success(c, "Files uploaded successfully", test)
}

// UploadGeneral appends files to a patient's catch-all record
// @Summary Upload general result files
// @Description Append files to the patient's catch-all record, creating it if needed
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patientId path string true "Patient public ID"
// @Param body body UploadRequest true "Files"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{patientId}/files [post]
func (h *LabTestHandler) UploadGeneral(c *fiber.Ctx) error {
	var req UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.UploadGeneralResults(c.Context(), c.Params("patientId"), req.Files)
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			return response.NotFound(c, "Patient not found")
		}
		return h.uploadError(c, err)
	}

	return response.Success(c, "Files uploaded successfully", test)
}

// Download streams a result file
// @Summary Download result file
// @Tags Tests
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param fileId path string true "File public ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /tests/{id}/files/{fileId} [get]
func (h *LabTestHandler) Download(c *fiber.Ctx) error {
	file, content, err := h.testService.DownloadFile(c.Context(), c.Params("id"), c.Params("fileId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound):
			return response.NotFound(c, "Test not found")
		case errors.Is(err, services.ErrFileNotFound):
			return response.NotFound(c, "File not found")
		default:
			return response.InternalServerError(c, "Failed to download file")
		}
	}

	c.Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	return c.Send(content)
}

// UpdateStatus moves a test through its lifecycle
// @Summary Update test status
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Param body body StatusRequest true "New status with current version"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tests/{id}/status [patch]
func (h *LabTestHandler) UpdateStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	test, err := h.testService.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Version)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound):
			return response.NotFound(c, "Test not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Invalid test status")
		case errors.Is(err, services.ErrStaleVersion):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update status")
		}
	}

	return response.Success(c, "Status updated successfully", test)
}

// Interpret assesses a recorded value against its reference range
// @Summary Interpret test result
// @Description Flag the recorded value as low, normal or high against the reference range
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Test public ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /tests/{id}/interpretation [get]
func (h *LabTestHandler) Interpret(c *fiber.Ctx) error {
	interpretation, err := h.testService.Interpret(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTestNotFound):
			return response.NotFound(c, "Test not found")
		case errors.Is(err, services.ErrNoResultValue):
			return response.UnprocessableEntity(c, "Test has no recorded result value")
		default:
			return response.InternalServerError(c, "Failed to interpret result")
		}
	}

	return response.Success(c, "Result interpreted", interpretation)
}

// Templates lists the chemistry test catalog
// @Summary List test catalog
// @Tags Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /tests/templates [get]
func (h *LabTestHandler) Templates(c *fiber.Ctx) error {
	templates, err := h.testService.ListTemplates(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list templates")
	}

	return response.Success(c, "Templates retrieved successfully", templates)
}

// uploadError maps upload failures to responses
func (h *LabTestHandler) uploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTestNotFound):
		return response.NotFound(c, "Test not found")
	case errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrUnsupportedFile),
		errors.Is(err, services.ErrInvalidFileData),
		errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		return response.PayloadTooLarge(c, err.Error())
	case errors.Is(err, services.ErrStaleVersion):
		return response.Conflict(c, err.Error())
	default:
		return response.InternalServerError(c, "Failed to upload files")
	}
}

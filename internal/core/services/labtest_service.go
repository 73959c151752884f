package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lab test errors
var (
	ErrTestNotFound     = errors.New("lab test not found")
	ErrTemplateNotFound = errors.New("test template not found")
	ErrTestNameRequired = errors.New("test name is required")
	ErrNoFiles          = errors.New("no files provided")
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedFile  = errors.New("only pdf and image files are accepted")
	ErrInvalidFileData  = errors.New("file content is not valid base64")
	ErrFileNotFound     = errors.New("result file not found")
	ErrResultRequired   = errors.New("result value is required")
	ErrStaleVersion     = errors.New("record was modified by another user, reload and retry")
	ErrInvalidStatus    = errors.New("invalid test status")
)

// generalRecordName is the per-patient catch-all record that files
// uploaded without a specific test are appended to.
const generalRecordName = "General Results"

// LabTestService handles the test request lifecycle
type LabTestService struct {
	testRepo        repositories.LabTestRepository
	patientRepo     repositories.PatientRepository
	blobRepo        repositories.BlobRepository
	templateRepo    repositories.TestTemplateRepository
	clientNotifRepo repositories.ClientNotificationRepository
	cfg             *config.Config
}

// NewLabTestService creates a new lab test service
func NewLabTestService(
	testRepo repositories.LabTestRepository,
	patientRepo repositories.PatientRepository,
	blobRepo repositories.BlobRepository,
	templateRepo repositories.TestTemplateRepository,
	clientNotifRepo repositories.ClientNotificationRepository,
	cfg *config.Config,
) *LabTestService {
	return &LabTestService{
		testRepo:        testRepo,
		patientRepo:     patientRepo,
		blobRepo:        blobRepo,
		templateRepo:    templateRepo,
		clientNotifRepo: clientNotifRepo,
		cfg:             cfg,
	}
}

// CreateTestInput represents test registration input. Either a catalog
// template code or a free-text test name must be given.
type CreateTestInput struct {
	PatientPublicID string `json:"patient_public_id" validate:"required"`
	TemplateCode    string `json:"template_code,omitempty"`
	TestName        string `json:"test_name,omitempty"`
	Notes           string `json:"notes,omitempty"`
	RequestedDate   string `json:"requested_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// RecordResultInput represents a numeric result entry
type RecordResultInput struct {
	Value          string `json:"value" validate:"required"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Version        int    `json:"version" validate:"required"`
}

// FileUpload represents one base64-encoded result file
type FileUpload struct {
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"` // base64
}

// Create registers a lab test for a patient. The patient's name and
// phone are copied onto the record so it survives patient deletion.
func (s *LabTestService) Create(ctx context.Context, input *CreateTestInput) (*models.LabTestResponse, error) {
	patient, err := s.patientRepo.GetByPublicID(ctx, input.PatientPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	test := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		PatientPhone:  patient.Phone,
		Status:        domain.StatusPending,
		Notes:         input.Notes,
		RequestedDate: time.Now(),
	}

	if input.RequestedDate != "" {
		day, err := time.Parse("2006-01-02", input.RequestedDate)
		if err != nil {
			return nil, fmt.Errorf("%w: requested_date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		test.RequestedDate = day
	}

	switch {
	case input.TemplateCode != "":
		tpl, err := s.templateRepo.GetByCode(ctx, strings.ToUpper(input.TemplateCode))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		test.TestName = tpl.Name
		test.Unit = tpl.Unit
		test.ReferenceRange = tpl.ReferenceRange
	case strings.TrimSpace(input.TestName) != "":
		test.TestName = strings.TrimSpace(input.TestName)
	default:
		return nil, ErrTestNameRequired
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, err
	}

	log.Printf("✅ Lab test registered: %s for patient %s", test.TestName, patient.PublicID)
	return test.ToResponse(), nil
}

// Get gets a test with its files
func (s *LabTestService) Get(ctx context.Context, publicID string) (*models.LabTestResponse, error) {
	test, err := s.testRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	return test.ToResponse(), nil
}

// List lists tests, optionally filtered by status and a search term
// matched against the test name or public ID.
func (s *LabTestService) List(ctx context.Context, status domain.TestStatus, search string, offset, limit int) ([]*models.LabTestResponse, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	tests, total, err := s.testRepo.List(ctx, status, search, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.LabTestResponse, len(tests))
	for i, t := range tests {
		responses[i] = t.ToResponse()
	}
	return responses, total, nil
}

// RecordResult writes a numeric result onto the test and completes it.
// The caller's version must match the stored one; a stale version means
// another employee already wrote to the record.
func (s *LabTestService) RecordResult(ctx context.Context, publicID string, input *RecordResultInput) (*models.LabTestResponse, error) {
	if strings.TrimSpace(input.Value) == "" {
		return nil, ErrResultRequired
	}

	test, err := s.testRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	test.Version = input.Version
	test.ResultValue = strings.TrimSpace(input.Value)
	if input.Unit != "" {
		test.Unit = input.Unit
	}
	if input.ReferenceRange != "" {
		test.ReferenceRange = input.ReferenceRange
	}
	now := time.Now()
	test.ResultUploadedAt = &now
	test.Status = domain.StatusCompleted

	if err := s.testRepo.UpdateVersioned(ctx, test); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	s.notifyCompletion(ctx, test)

	log.Printf("✅ Result recorded for test %s: %s %s", test.PublicID, test.ResultValue, test.Unit)
	return test.ToResponse(), nil
}

// UploadResults decodes and stores result files, appends them to the
// test and completes it. Files already on the record are kept; an
// upload only ever adds.
func (s *LabTestService) UploadResults(ctx context.Context, publicID string, uploads []FileUpload) (*models.LabTestResponse, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	test, err := s.testRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	files, err := s.storeUploads(ctx, test.ID, uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	test.ResultUploadedAt = &now
	test.Status = domain.StatusCompleted

	// File rows and the versioned save commit together; a conflicting
	// write leaves nothing behind, so the caller can retry cleanly.
	if err := s.testRepo.AppendFilesVersioned(ctx, test, files); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	s.notifyCompletion(ctx, test)

	log.Printf("✅ %d result file(s) uploaded for test %s", len(files), test.PublicID)

	// Re-read so the response carries the full file list.
	return s.Get(ctx, publicID)
}

// UploadGeneralResults appends files to the patient's catch-all record,
// creating it on first use. Used when results are not tied to a single
// registered test.
func (s *LabTestService) UploadGeneralResults(ctx context.Context, patientPublicID string, uploads []FileUpload) (*models.LabTestResponse, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	patient, err := s.patientRepo.GetByPublicID(ctx, patientPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	test, err := s.testRepo.FindGeneralRecord(ctx, patient.ID, generalRecordName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		test = &models.LabTest{
			PublicID:      uuid.New().String(),
			PatientID:     patient.ID,
			PatientName:   patient.Name,
			PatientPhone:  patient.Phone,
			TestName:      generalRecordName,
			Status:        domain.StatusPending,
			RequestedDate: time.Now(),
		}
		if err := s.testRepo.Create(ctx, test); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return s.UploadResults(ctx, test.PublicID, uploads)
}

// DownloadFile returns a stored result file with its content
func (s *LabTestService) DownloadFile(ctx context.Context, testPublicID, filePublicID string) (*models.ResultFile, []byte, error) {
	test, err := s.testRepo.GetByPublicID(ctx, testPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, err
	}

	file, err := s.testRepo.GetFileByPublicID(ctx, test.ID, filePublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	blob, err := s.blobRepo.Get(ctx, file.BlobHash)
	if err != nil {
		return nil, nil, err
	}

	return file, blob.Content, nil
}

// UpdateStatus moves a test through its lifecycle with an explicit
// version check.
func (s *LabTestService) UpdateStatus(ctx context.Context, publicID string, status domain.TestStatus, version int) (*models.LabTestResponse, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	test, err := s.testRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	test.Version = version
	test.Status = status
	if err := s.testRepo.UpdateVersioned(ctx, test); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, ErrStaleVersion
		}
		return nil, err
	}

	if status == domain.StatusCompleted {
		s.notifyCompletion(ctx, test)
	}

	log.Printf("✅ Test %s moved to %s", test.PublicID, status)
	return test.ToResponse(), nil
}

// ListTemplates lists the chemistry test catalog
func (s *LabTestService) ListTemplates(ctx context.Context) ([]*models.TestTemplate, error) {
	return s.templateRepo.List(ctx)
}

// storeUploads validates, decodes and persists upload payloads as
// content-addressed blobs, returning the reference rows to append.
func (s *LabTestService) storeUploads(ctx context.Context, testID uint, uploads []FileUpload) ([]*models.ResultFile, error) {
	files := make([]*models.ResultFile, 0, len(uploads))
	now := time.Now()

	for _, up := range uploads {
		fileType, err := classifyFile(up.Filename)
		if err != nil {
			return nil, err
		}

		content, err := base64.StdEncoding.DecodeString(up.Content)
		if err != nil {
			return nil, ErrInvalidFileData
		}
		if int64(len(content)) > s.cfg.Lab.MaxFileSizeBytes {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, up.Filename)
		}
		if len(content) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, up.Filename)
		}

		hash, err := s.blobRepo.Put(ctx, content)
		if err != nil {
			return nil, err
		}

		files = append(files, &models.ResultFile{
			PublicID:   uuid.New().String(),
			LabTestID:  testID,
			Filename:   filepath.Base(up.Filename),
			FileType:   fileType,
			Size:       int64(len(content)),
			BlobHash:   hash,
			UploadedAt: now,
		})
	}

	return files, nil
}

// notifyCompletion files an idempotent completion notice for the
// patient. Errors are logged, not returned: the result write already
// succeeded.
func (s *LabTestService) notifyCompletion(ctx context.Context, test *models.LabTest) {
	notif := &models.ClientNotification{
		PatientID: test.PatientID,
		LabTestID: test.ID,
		Message:   fmt.Sprintf("Your %s result is ready", test.TestName),
	}
	if err := s.clientNotifRepo.CreateIfAbsent(ctx, notif); err != nil {
		log.Printf("❌ Failed to file completion notice for test %s: %v", test.PublicID, err)
	}
}

// classifyFile maps a filename extension to a stored file type
func classifyFile(filename string) (domain.FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domain.FileTypePDF, nil
	case ".jpg", ".jpeg", ".png", ".webp":
		return domain.FileTypeImage, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

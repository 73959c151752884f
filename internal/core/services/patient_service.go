package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/pkg/password"
	"mostaqbal-lab/internal/pkg/phone"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient errors
var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidAge      = errors.New("age must be between 1 and 120")
	ErrInvalidGender   = errors.New("gender must be male or female")
	ErrInvalidPhone    = errors.New("phone number is invalid")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrNameRequired    = errors.New("patient name is required")
)

// PatientService handles the patient registry
type PatientService struct {
	patientRepo repositories.PatientRepository
	userRepo    repositories.UserRepository
	testRepo    repositories.LabTestRepository
	cfg         *config.Config
}

// NewPatientService creates a new patient service
func NewPatientService(
	patientRepo repositories.PatientRepository,
	userRepo repositories.UserRepository,
	testRepo repositories.LabTestRepository,
	cfg *config.Config,
) *PatientService {
	return &PatientService{
		patientRepo: patientRepo,
		userRepo:    userRepo,
		testRepo:    testRepo,
		cfg:         cfg,
	}
}

// CreatePatientInput represents patient registration input
type CreatePatientInput struct {
	Name     string        `json:"name" validate:"required"`
	Age      int           `json:"age" validate:"required"`
	Gender   domain.Gender `json:"gender" validate:"required"`
	Phone    string        `json:"phone" validate:"required"`
	Username string        `json:"username,omitempty"` // generated from phone when empty
	Password string        `json:"password,omitempty"` // generated when empty
}

// CreatePatientOutput carries the registered patient plus the login
// credential. The plain password appears here once and is never
// retrievable again.
type CreatePatientOutput struct {
	Patient  *models.PatientResponse `json:"patient"`
	Username string                  `json:"username"`
	Password string                  `json:"password,omitempty"`
}

// UpdatePatientInput represents patient update input
type UpdatePatientInput struct {
	Name     string        `json:"name,omitempty"`
	Age      int           `json:"age,omitempty"`
	Gender   domain.Gender `json:"gender,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	Username string        `json:"username,omitempty"` // renames the portal login
}

// Create registers a patient and provisions its portal credential in a
// single transaction.
func (s *PatientService) Create(ctx context.Context, input *CreatePatientInput) (*CreatePatientOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.Age < 1 || input.Age > 120 {
		return nil, ErrInvalidAge
	}
	if !input.Gender.Valid() {
		return nil, ErrInvalidGender
	}

	normalized, err := phone.Normalize(input.Phone, s.cfg.Lab.CountryCode)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	// Default the username to the normalized phone number: unique,
	// and something the patient already knows.
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = normalized
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	plainPassword := input.Password
	generated := false
	if plainPassword == "" {
		plainPassword, err = password.Generate(10)
		if err != nil {
			return nil, err
		}
		generated = true
	}

	hashed, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		PublicID: uuid.New().String(),
		Name:     name,
		Age:      input.Age,
		Gender:   input.Gender,
		Phone:    normalized,
	}

	user := &models.User{
		PublicID: uuid.New().String(),
		Name:     name,
		Username: username,
		Email:    username + "@" + s.cfg.Lab.EmailDomain,
		Password: hashed,
		Role:     domain.RoleClient,
		Phone:    normalized,
		IsActive: true,
	}

	if err := s.patientRepo.CreateWithCredential(ctx, patient, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Patient registered: %s (%s)", patient.Name, patient.PublicID)

	out := &CreatePatientOutput{
		Patient:  patient.ToResponse(),
		Username: username,
	}
	out.Patient.Username = username
	if generated {
		out.Password = plainPassword
	}
	return out, nil
}

// GetByPublicID gets a patient with its linked username
func (s *PatientService) GetByPublicID(ctx context.Context, publicID string) (*models.PatientResponse, error) {
	patient, err := s.patientRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	resp := patient.ToResponse()
	if user, err := s.userRepo.GetByPatientID(ctx, patient.ID); err == nil {
		resp.Username = user.Username
	}
	return resp, nil
}

// Update updates patient details. The denormalized name/phone on lab
// tests is not rewritten; records keep the values they were filed with.
func (s *PatientService) Update(ctx context.Context, publicID string, input *UpdatePatientInput) (*models.PatientResponse, error) {
	patient, err := s.patientRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		patient.Name = name
	}
	if input.Age != 0 {
		if input.Age < 1 || input.Age > 120 {
			return nil, ErrInvalidAge
		}
		patient.Age = input.Age
	}
	if input.Gender != "" {
		if !input.Gender.Valid() {
			return nil, ErrInvalidGender
		}
		patient.Gender = input.Gender
	}
	if input.Phone != "" {
		normalized, err := phone.Normalize(input.Phone, s.cfg.Lab.CountryCode)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		patient.Phone = normalized
	}

	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, err
	}

	resp := patient.ToResponse()

	if username := strings.TrimSpace(input.Username); username != "" {
		user, err := s.userRepo.GetByPatientID(ctx, patient.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else if user.Username != username {
			exists, err := s.userRepo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrUsernameTaken
			}
			user.Username = username
			user.Email = username + "@" + s.cfg.Lab.EmailDomain
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, err
			}
			resp.Username = username
		}
	}

	log.Printf("✅ Patient updated: %s", patient.PublicID)
	return resp, nil
}

// Delete removes a patient and its portal credential. Lab tests filed
// for the patient are kept as orphaned history.
func (s *PatientService) Delete(ctx context.Context, publicID string) error {
	patient, err := s.patientRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatientNotFound
		}
		return err
	}

	if err := s.patientRepo.DeleteWithCredential(ctx, patient.ID); err != nil {
		return err
	}

	log.Printf("✅ Patient deleted: %s (tests retained)", patient.PublicID)
	return nil
}

// List lists patients; a non-empty search term filters by name or
// phone substring.
func (s *PatientService) List(ctx context.Context, search string, offset, limit int) ([]*models.PatientResponse, int64, error) {
	var (
		patients []*models.Patient
		total    int64
		err      error
	)

	if search != "" {
		patients, total, err = s.patientRepo.Search(ctx, search, offset, limit)
	} else {
		patients, total, err = s.patientRepo.List(ctx, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.PatientResponse, len(patients))
	for i, p := range patients {
		responses[i] = p.ToResponse()
	}
	return responses, total, nil
}

// History returns a patient's lab tests, newest first
func (s *PatientService) History(ctx context.Context, publicID string) ([]*models.LabTestResponse, error) {
	patient, err := s.patientRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	tests, err := s.testRepo.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.LabTestResponse, len(tests))
	for i, t := range tests {
		responses[i] = t.ToResponse()
	}
	return responses, nil
}

package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/pkg/password"
	"mostaqbal-lab/internal/pkg/phone"

	"github.com/google/uuid"
)

// Intake errors
var (
	ErrNameTooShort = errors.New("the full four-part name is required")
)

// IntakeService handles the public home-visit request form. No
// authentication: this is the one door an unregistered patient has.
type IntakeService struct {
	patientRepo    repositories.PatientRepository
	userRepo       repositories.UserRepository
	testRepo       repositories.LabTestRepository
	staffNotifRepo repositories.StaffNotificationRepository
	cfg            *config.Config
}

// NewIntakeService creates a new intake service
func NewIntakeService(
	patientRepo repositories.PatientRepository,
	userRepo repositories.UserRepository,
	testRepo repositories.LabTestRepository,
	staffNotifRepo repositories.StaffNotificationRepository,
	cfg *config.Config,
) *IntakeService {
	return &IntakeService{
		patientRepo:    patientRepo,
		userRepo:       userRepo,
		testRepo:       testRepo,
		staffNotifRepo: staffNotifRepo,
		cfg:            cfg,
	}
}

// HomeVisitInput represents the public intake form
type HomeVisitInput struct {
	Name     string        `json:"name" validate:"required"`
	Age      int           `json:"age" validate:"required"`
	Gender   domain.Gender `json:"gender" validate:"required"`
	Phone    string        `json:"phone" validate:"required"`
	TestName string        `json:"test_name,omitempty"`
	Lat      *float64      `json:"lat,omitempty"`
	Lng      *float64      `json:"lng,omitempty"`
	Notes    string        `json:"notes,omitempty"`
}

// HomeVisitOutput carries the created request plus the portal
// credential generated for the new patient.
type HomeVisitOutput struct {
	Request  *models.LabTestResponse `json:"request"`
	Username string                  `json:"username"`
	Password string                  `json:"password"`
}

// RequestHomeVisit registers the patient, provisions a portal
// credential, files the visit request and queues staff outreach.
func (s *IntakeService) RequestHomeVisit(ctx context.Context, input *HomeVisitInput) (*HomeVisitOutput, error) {
	name := strings.Join(strings.Fields(input.Name), " ")
	if len(strings.Fields(name)) < 4 {
		return nil, ErrNameTooShort
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

	username := normalized
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	plainPassword, err := password.Generate(10)
	if err != nil {
		return nil, err
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

	testName := strings.TrimSpace(input.TestName)
	if testName == "" {
		testName = "Home Visit"
	}

	test := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		PatientPhone:  patient.Phone,
		TestName:      testName,
		Status:        domain.StatusPending,
		LocationLat:   input.Lat,
		LocationLng:   input.Lng,
		Notes:         input.Notes,
		RequestedDate: time.Now(),
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, err
	}

	notif := &models.StaffNotification{
		PublicID:     uuid.New().String(),
		PatientName:  patient.Name,
		PatientPhone: patient.Phone,
		LabTestID:    test.ID,
		Status:       domain.OutreachNew,
		LocationLat:  input.Lat,
		LocationLng:  input.Lng,
	}
	if err := s.staffNotifRepo.Create(ctx, notif); err != nil {
		// The request itself is filed; a missing outreach entry is
		// recoverable from the client-request list.
		log.Printf("❌ Failed to queue outreach for request %s: %v", test.PublicID, err)
	}

	log.Printf("✅ Home visit requested: %s (%s)", patient.Name, test.PublicID)

	return &HomeVisitOutput{
		Request:  test.ToResponse(),
		Username: username,
		Password: plainPassword,
	}, nil
}

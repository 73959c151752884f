package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/pkg/phone"

	"gorm.io/gorm"
)

// Notification errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownTemplate      = errors.New("unknown message template")
)

// NotificationService handles the staff outreach queue and WhatsApp
// deep links.
type NotificationService struct {
	staffNotifRepo  repositories.StaffNotificationRepository
	clientNotifRepo repositories.ClientNotificationRepository
	testRepo        repositories.LabTestRepository
	cfg             *config.Config
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	staffNotifRepo repositories.StaffNotificationRepository,
	clientNotifRepo repositories.ClientNotificationRepository,
	testRepo repositories.LabTestRepository,
	cfg *config.Config,
) *NotificationService {
	return &NotificationService{
		staffNotifRepo:  staffNotifRepo,
		clientNotifRepo: clientNotifRepo,
		testRepo:        testRepo,
		cfg:             cfg,
	}
}

// OutreachEntry is a queue entry enriched with its WhatsApp link
type OutreachEntry struct {
	*models.StaffNotification
	WhatsAppLink string           `json:"whatsapp_link"`
	MapsLink     string           `json:"maps_link,omitempty"`
	Location     *domain.Location `json:"location,omitempty"`
}

// ListOutreach lists the outreach queue, optionally filtered by status,
// each entry carrying a ready-to-open wa.me link.
func (s *NotificationService) ListOutreach(ctx context.Context, status domain.OutreachStatus, offset, limit int) ([]*OutreachEntry, int64, error) {
	notifs, total, err := s.staffNotifRepo.List(ctx, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*OutreachEntry, len(notifs))
	for i, n := range notifs {
		entries[i] = s.toEntry(n)
	}
	return entries, total, nil
}

// MarkContacted records that staff reached the patient and moves the
// underlying request to sent.
func (s *NotificationService) MarkContacted(ctx context.Context, publicID string) (*OutreachEntry, error) {
	notif, err := s.staffNotifRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	// Redundant marks are harmless: two staff members racing on the same
	// entry both get a success, and the first timestamp wins.
	if notif.Status == domain.OutreachContacted {
		return s.toEntry(notif), nil
	}

	now := time.Now()
	notif.Status = domain.OutreachContacted
	notif.ContactedAt = &now
	if err := s.staffNotifRepo.Update(ctx, notif); err != nil {
		return nil, err
	}

	// Move the request along if it still awaits contact.
	test, err := s.testRepo.GetByID(ctx, notif.LabTestID)
	if err == nil && test.Status.AwaitingContact() {
		test.Status = domain.StatusSent
		if err := s.testRepo.UpdateVersioned(ctx, test); err != nil {
			log.Printf("❌ Failed to move test %s to sent: %v", test.PublicID, err)
		}
	}

	log.Printf("✅ Outreach marked contacted: %s", notif.PublicID)
	return s.toEntry(notif), nil
}

// CountPending counts outreach entries not yet contacted
func (s *NotificationService) CountPending(ctx context.Context) (int64, error) {
	return s.staffNotifRepo.CountByStatus(ctx, domain.OutreachNew)
}

// ListUnseenForPatient lists a patient's unseen completion notices
func (s *NotificationService) ListUnseenForPatient(ctx context.Context, patientID uint) ([]*models.ClientNotification, error) {
	return s.clientNotifRepo.ListUnseen(ctx, patientID)
}

// MarkSeen acknowledges one of the patient's completion notices
func (s *NotificationService) MarkSeen(ctx context.Context, patientID, notificationID uint) error {
	return s.clientNotifRepo.MarkSeen(ctx, patientID, notificationID)
}

// ResultReadyLink builds a wa.me link telling a patient their result is
// ready.
func (s *NotificationService) ResultReadyLink(patientPhone, testName string) string {
	msg := fmt.Sprintf("Your %s result is ready. Log in to the portal to view it.", testName)
	return phone.WhatsAppLink(patientPhone, msg)
}

// TestLink builds a wa.me link for a test's patient from a named
// message template. The server never sends the message; staff open the
// link and deliver it themselves.
func (s *NotificationService) TestLink(ctx context.Context, testPublicID, template string) (string, error) {
	test, err := s.testRepo.GetByPublicID(ctx, testPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTestNotFound
		}
		return "", err
	}

	var msg string
	switch template {
	case "received":
		msg = fmt.Sprintf("Hello %s, we received your %s request and will contact you shortly.", test.PatientName, test.TestName)
	case "followup":
		msg = fmt.Sprintf("Hello %s, this is Mostaqbal Lab following up on your %s.", test.PatientName, test.TestName)
	case "", "ready":
		return s.ResultReadyLink(test.PatientPhone, test.TestName), nil
	default:
		return "", ErrUnknownTemplate
	}

	return phone.WhatsAppLink(test.PatientPhone, msg), nil
}

// toEntry attaches the WhatsApp and maps links to a queue entry
func (s *NotificationService) toEntry(n *models.StaffNotification) *OutreachEntry {
	msg := fmt.Sprintf("Hello %s, this is Mostaqbal Lab about your home visit request.", n.PatientName)
	entry := &OutreachEntry{
		StaffNotification: n,
		WhatsAppLink:      phone.WhatsAppLink(n.PatientPhone, msg),
	}
	if n.LocationLat != nil && n.LocationLng != nil {
		entry.Location = &domain.Location{Lat: *n.LocationLat, Lng: *n.LocationLng}
		entry.MapsLink = fmt.Sprintf("https://www.google.com/maps?q=%f,%f", *n.LocationLat, *n.LocationLng)
	}
	return entry
}

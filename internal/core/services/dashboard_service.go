package services

import (
	"context"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/core/domain"
)

// DashboardService aggregates the staff landing-page counters
type DashboardService struct {
	patientRepo    repositories.PatientRepository
	testRepo       repositories.LabTestRepository
	staffNotifRepo repositories.StaffNotificationRepository
	ledgerRepo     repositories.LedgerRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	patientRepo repositories.PatientRepository,
	testRepo repositories.LabTestRepository,
	staffNotifRepo repositories.StaffNotificationRepository,
	ledgerRepo repositories.LedgerRepository,
) *DashboardService {
	return &DashboardService{
		patientRepo:    patientRepo,
		testRepo:       testRepo,
		staffNotifRepo: staffNotifRepo,
		ledgerRepo:     ledgerRepo,
	}
}

// TestCounters breaks tests down by lifecycle state
type TestCounters struct {
	ClientRequests int64 `json:"client_requests"`
	Pending        int64 `json:"pending"`
	Sent           int64 `json:"sent"`
	Completed      int64 `json:"completed"`
	RequestedToday int64 `json:"requested_today"`
}

// DashboardStats is the staff landing-page payload
type DashboardStats struct {
	TotalPatients   int64                       `json:"total_patients"`
	NewThisWeek     int64                       `json:"new_this_week"`
	Tests           TestCounters                `json:"tests"`
	PendingOutreach int64                       `json:"pending_outreach"`
	Ledger          *repositories.LedgerSummary `json:"ledger"`
	RecentTests     []*models.LabTestResponse   `json:"recent_tests"`
}

// GetStats assembles the dashboard counters
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.TotalPatients, err = s.patientRepo.CountAll(ctx); err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if stats.NewThisWeek, err = s.patientRepo.CountCreatedSince(ctx, weekAgo); err != nil {
		return nil, err
	}

	if stats.Tests.ClientRequests, err = s.testRepo.CountByStatus(ctx, domain.StatusClientRequest); err != nil {
		return nil, err
	}
	if stats.Tests.Pending, err = s.testRepo.CountByStatus(ctx, domain.StatusPending); err != nil {
		return nil, err
	}
	if stats.Tests.Sent, err = s.testRepo.CountByStatus(ctx, domain.StatusSent); err != nil {
		return nil, err
	}
	if stats.Tests.Completed, err = s.testRepo.CountByStatus(ctx, domain.StatusCompleted); err != nil {
		return nil, err
	}
	if stats.Tests.RequestedToday, err = s.testRepo.CountRequestedOn(ctx, time.Now()); err != nil {
		return nil, err
	}

	if stats.PendingOutreach, err = s.staffNotifRepo.CountByStatus(ctx, domain.OutreachNew); err != nil {
		return nil, err
	}

	if stats.Ledger, err = s.ledgerRepo.Summary(ctx); err != nil {
		return nil, err
	}

	recent, err := s.testRepo.ListRecent(ctx, 10)
	if err != nil {
		return nil, err
	}
	stats.RecentTests = make([]*models.LabTestResponse, len(recent))
	for i, t := range recent {
		stats.RecentTests[i] = t.ToResponse()
	}

	return stats, nil
}

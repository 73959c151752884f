package services

import (
	"context"
	"log"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"

	"github.com/robfig/cron/v3"
)

// CronService runs the scheduled maintenance jobs: nightly purge of
// expired refresh tokens and an hourly reminder for outreach entries
// nobody has picked up.
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	staffNotifRepo   repositories.StaffNotificationRepository
	cfg              *config.Config
}

// NewCronService creates a new cron service
func NewCronService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	staffNotifRepo repositories.StaffNotificationRepository,
	cfg *config.Config,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		staffNotifRepo:   staffNotifRepo,
		cfg:              cfg,
	}
}

// Start registers and starts the jobs
func (s *CronService) Start() error {
	// Nightly at 03:00: purge expired refresh tokens
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeExpiredTokens); err != nil {
		return err
	}

	// Hourly: surface stale outreach entries
	if _, err := s.cron.AddFunc("0 * * * *", s.remindStaleOutreach); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Cron jobs scheduled")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron jobs stopped")
}

func (s *CronService) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("❌ Token purge failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("🧹 Purged %d expired refresh tokens", deleted)
	}
}

func (s *CronService) remindStaleOutreach() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(s.cfg.Lab.StaleOutreachHrs) * time.Hour)
	stale, err := s.staffNotifRepo.ListStaleNew(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Stale outreach check failed: %v", err)
		return
	}
	if len(stale) > 0 {
		log.Printf("⏰ %d outreach entries waiting longer than %dh", len(stale), s.cfg.Lab.StaleOutreachHrs)
	}
}

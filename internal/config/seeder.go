package config

import (
	"log"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"
	"mostaqbal-lab/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if err := s.seedTestCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the bootstrap admin account from config. The
// login flow depends on exactly one such account existing.
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	if s.cfg.Lab.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: ADMIN_PASSWORD not set")
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.Lab.AdminPassword)
	if err != nil {
		return err
	}

	// Staff domain, not the client one: the derived-email login branch
	// treats username@<client domain> as a patient account.
	admin := &models.User{
		PublicID: uuid.New().String(),
		Name:     "Administrator",
		Username: s.cfg.Lab.AdminUsername,
		Email:    s.cfg.Lab.AdminUsername + "@staff." + s.cfg.Lab.EmailDomain,
		Password: hashedPassword,
		Role:     domain.RoleAdmin,
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedTestCatalog seeds the chemistry test catalog staff pick from
// when registering a test.
func (s *Seeder) seedTestCatalog() error {
	var count int64
	s.db.Model(&models.TestTemplate{}).Count(&count)
	if count > 0 {
		return nil // Catalog already seeded
	}

	templates := []models.TestTemplate{
		{Code: "CREA", Name: "S. Creatinine", Unit: "mg/dL", ReferenceRange: "0.6 - 1.2", Price: 80, IsActive: true},
		{Code: "ALT", Name: "SGPT (ALT)", Unit: "U/L", ReferenceRange: "7 - 56", Price: 90, IsActive: true},
		{Code: "FBS", Name: "Fasting Blood Sugar", Unit: "mg/dL", ReferenceRange: "70 - 100", Price: 60, IsActive: true},
		{Code: "CHOL", Name: "Total Cholesterol", Unit: "mg/dL", ReferenceRange: "< 200", Price: 100, IsActive: true},
		{Code: "UA", Name: "Uric Acid", Unit: "mg/dL", ReferenceRange: "3.5 - 7.2", Price: 85, IsActive: true},
		{Code: "HBA1C", Name: "HbA1c", Unit: "%", ReferenceRange: "4.0 - 5.6", Price: 180, IsActive: true},
	}

	if err := s.db.Create(&templates).Error; err != nil {
		return err
	}

	log.Printf("✅ Test catalog seeded: %d templates", len(templates))
	return nil
}

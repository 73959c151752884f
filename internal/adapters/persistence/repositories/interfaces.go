package repositories

import (
	"context"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"
)

// UserRepository defines account repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPatientID(ctx context.Context, patientID uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PatientRepository defines patient registry repository interface
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	// CreateWithCredential creates the patient and its login account in
	// a single transaction; user.PatientID is set to the new patient ID.
	CreateWithCredential(ctx context.Context, patient *models.Patient, user *models.User) error
	// DeleteWithCredential deletes the patient and its linked login
	// account in a single transaction. Lab tests are not cascaded.
	DeleteWithCredential(ctx context.Context, patientID uint) error
	GetByID(ctx context.Context, id uint) (*models.Patient, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Patient, int64, error)
	Search(ctx context.Context, term string, offset, limit int) ([]*models.Patient, int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]*models.Patient, error)
}

// LabTestRepository defines test/request repository interface
type LabTestRepository interface {
	Create(ctx context.Context, test *models.LabTest) error
	GetByID(ctx context.Context, id uint) (*models.LabTest, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.LabTest, error)
	// UpdateVersioned persists the record only if its version column still
	// matches test.Version, then bumps it. Returns domain.ErrVersionConflict
	// when another writer got there first.
	UpdateVersioned(ctx context.Context, test *models.LabTest) error
	List(ctx context.Context, status domain.TestStatus, search string, offset, limit int) ([]*models.LabTest, int64, error)
	ListByPatient(ctx context.Context, patientID uint) ([]*models.LabTest, error)
	ListCompletedWithFiles(ctx context.Context, patientID uint) ([]*models.LabTest, error)
	FindGeneralRecord(ctx context.Context, patientID uint, testName string) (*models.LabTest, error)
	CountByStatus(ctx context.Context, status domain.TestStatus) (int64, error)
	CountNotStatus(ctx context.Context, status domain.TestStatus) (int64, error)
	CountRequestedOn(ctx context.Context, day time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.LabTest, error)

	AppendFiles(ctx context.Context, files []*models.ResultFile) error
	// AppendFilesVersioned runs AppendFiles plus UpdateVersioned in one
	// transaction: a version conflict leaves no file rows behind.
	AppendFilesVersioned(ctx context.Context, test *models.LabTest, files []*models.ResultFile) error
	GetFileByPublicID(ctx context.Context, testID uint, filePublicID string) (*models.ResultFile, error)
}

// BlobRepository defines content-addressed file storage
type BlobRepository interface {
	// Put stores content under its SHA-256 hash and returns the hash.
	// Storing the same content twice is a no-op.
	Put(ctx context.Context, content []byte) (string, error)
	Get(ctx context.Context, hash string) (*models.ResultBlob, error)
}

// StaffNotificationRepository defines the outreach queue repository
type StaffNotificationRepository interface {
	Create(ctx context.Context, notif *models.StaffNotification) error
	GetByPublicID(ctx context.Context, publicID string) (*models.StaffNotification, error)
	Update(ctx context.Context, notif *models.StaffNotification) error
	List(ctx context.Context, status domain.OutreachStatus, offset, limit int) ([]*models.StaffNotification, int64, error)
	CountByStatus(ctx context.Context, status domain.OutreachStatus) (int64, error)
	ListStaleNew(ctx context.Context, olderThan time.Time) ([]*models.StaffNotification, error)
}

// ClientNotificationRepository defines completion-notice storage
type ClientNotificationRepository interface {
	// CreateIfAbsent inserts the notice unless one already exists for the
	// same (patient, test) pair.
	CreateIfAbsent(ctx context.Context, notif *models.ClientNotification) error
	ListUnseen(ctx context.Context, patientID uint) ([]*models.ClientNotification, error)
	MarkSeen(ctx context.Context, patientID, id uint) error
}

// LedgerSummary holds recomputed ledger totals
type LedgerSummary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

// LedgerRepository defines the accounting repository interface
type LedgerRepository interface {
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetEntryByPublicID(ctx context.Context, publicID string) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, entryType domain.EntryType, offset, limit int) ([]*models.LedgerEntry, int64, error)
	DeleteEntry(ctx context.Context, id uint) error
	// Summary recomputes totals from live entries on every call.
	Summary(ctx context.Context) (*LedgerSummary, error)
	CreateNeed(ctx context.Context, need *models.LabNeed) error
	ListNeeds(ctx context.Context, offset, limit int) ([]*models.LabNeed, int64, error)
}

// TestTemplateRepository defines the chemistry catalog repository
type TestTemplateRepository interface {
	GetByCode(ctx context.Context, code string) (*models.TestTemplate, error)
	List(ctx context.Context) ([]*models.TestTemplate, error)
	Create(ctx context.Context, tpl *models.TestTemplate) error
	Count(ctx context.Context) (int64, error)
}

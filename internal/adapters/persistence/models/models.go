package models

import (
	"time"

	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Accounts & Sessions
// ============================================================

// User represents the users table. This is the single login table:
// staff accounts and patient (client) accounts both live here.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PublicID  string         `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      domain.Role    `gorm:"size:20;default:'CLIENT'" json:"role"`
	Phone     string         `gorm:"size:20" json:"phone"`
	PatientID *uint          `gorm:"index" json:"patient_id,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint        `json:"id"`
	PublicID  string      `json:"public_id"`
	Name      string      `json:"name"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	PatientID *uint       `json:"patient_id,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		PublicID:  u.PublicID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      u.Role,
		Phone:     u.Phone,
		PatientID: u.PatientID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Patient Registry
// ============================================================

// Patient represents the patients table. The login credential, when one
// is provisioned, is the linked users row (User.PatientID), written in
// the same transaction as the patient.
type Patient struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PublicID  string         `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	Name      string         `gorm:"size:150;not null" json:"name"`
	Age       int            `gorm:"not null" json:"age"`
	Gender    domain.Gender  `gorm:"size:10;not null" json:"gender"`
	Phone     string         `gorm:"size:20;not null;index" json:"phone"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Patient) TableName() string {
	return "patients"
}

// PatientResponse DTO
type PatientResponse struct {
	ID        uint          `json:"id"`
	PublicID  string        `json:"public_id"`
	Name      string        `json:"name"`
	Age       int           `json:"age"`
	Gender    domain.Gender `json:"gender"`
	Phone     string        `json:"phone"`
	Username  string        `json:"username,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (p *Patient) ToResponse() *PatientResponse {
	return &PatientResponse{
		ID:        p.ID,
		PublicID:  p.PublicID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

// ============================================================
// Test / Request Lifecycle
// ============================================================

// LabTest represents the lab_tests table. One row per requested test or
// home-visit request. PatientID is a plain column, not a database
// foreign key: deleting a patient leaves its tests retrievable.
type LabTest struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	PublicID         string            `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	PatientID        uint              `gorm:"index;not null" json:"patient_id"`
	PatientName      string            `gorm:"size:150" json:"patient_name"`
	PatientPhone     string            `gorm:"size:20" json:"patient_phone"`
	TestName         string            `gorm:"size:150;not null" json:"test_name"`
	Status           domain.TestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ResultValue      string            `gorm:"size:50" json:"result_value,omitempty"`
	Unit             string            `gorm:"size:20" json:"unit,omitempty"`
	ReferenceRange   string            `gorm:"size:50" json:"reference_range,omitempty"`
	ResultUploadedAt *time.Time        `json:"result_uploaded_at,omitempty"`
	LocationLat      *float64          `json:"location_lat,omitempty"`
	LocationLng      *float64          `json:"location_lng,omitempty"`
	Notes            string            `gorm:"type:text" json:"notes,omitempty"`
	RequestedDate    time.Time         `gorm:"type:date;not null" json:"requested_date"`
	Version          int               `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Files []ResultFile `gorm:"foreignKey:LabTestID" json:"files,omitempty"`
}

func (LabTest) TableName() string {
	return "lab_tests"
}

// Location returns the attached GPS point, if any
func (t *LabTest) Location() *domain.Location {
	if t.LocationLat == nil || t.LocationLng == nil {
		return nil
	}
	return &domain.Location{Lat: *t.LocationLat, Lng: *t.LocationLng}
}

// LabTestResponse DTO
type LabTestResponse struct {
	ID               uint                  `json:"id"`
	PublicID         string                `json:"public_id"`
	PatientID        uint                  `json:"patient_id"`
	PatientName      string                `json:"patient_name"`
	PatientPhone     string                `json:"patient_phone"`
	TestName         string                `json:"test_name"`
	Status           domain.TestStatus     `json:"status"`
	ResultValue      string                `json:"result_value,omitempty"`
	Unit             string                `json:"unit,omitempty"`
	ReferenceRange   string                `json:"reference_range,omitempty"`
	ResultUploadedAt *time.Time            `json:"result_uploaded_at,omitempty"`
	Location         *domain.Location      `json:"location,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	RequestedDate    string                `json:"requested_date"`
	Version          int                   `json:"version"`
	Files            []*ResultFileResponse `json:"files,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

func (t *LabTest) ToResponse() *LabTestResponse {
	resp := &LabTestResponse{
		ID:               t.ID,
		PublicID:         t.PublicID,
		PatientID:        t.PatientID,
		PatientName:      t.PatientName,
		PatientPhone:     t.PatientPhone,
		TestName:         t.TestName,
		Status:           t.Status,
		ResultValue:      t.ResultValue,
		Unit:             t.Unit,
		ReferenceRange:   t.ReferenceRange,
		ResultUploadedAt: t.ResultUploadedAt,
		Location:         t.Location(),
		Notes:            t.Notes,
		RequestedDate:    t.RequestedDate.Format("2006-01-02"),
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
	}
	if len(t.Files) > 0 {
		resp.Files = make([]*ResultFileResponse, len(t.Files))
		for i := range t.Files {
			resp.Files[i] = t.Files[i].ToResponse()
		}
	}
	return resp
}

// ResultFile represents the result_files table. The file content lives
// in result_blobs keyed by hash; the row holds the reference only.
type ResultFile struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PublicID   string          `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	LabTestID  uint            `gorm:"index;not null" json:"lab_test_id"`
	Filename   string          `gorm:"size:255;not null" json:"filename"`
	FileType   domain.FileType `gorm:"size:10;not null" json:"file_type"`
	Size       int64           `gorm:"not null" json:"size"`
	BlobHash   string          `gorm:"size:64;not null;index" json:"blob_hash"`
	UploadedAt time.Time       `gorm:"not null" json:"uploaded_at"`
}

func (ResultFile) TableName() string {
	return "result_files"
}

// ResultFileResponse DTO
type ResultFileResponse struct {
	ID         uint            `json:"id"`
	PublicID   string          `json:"public_id"`
	Filename   string          `json:"filename"`
	FileType   domain.FileType `json:"file_type"`
	Size       int64           `json:"size"`
	UploadedAt time.Time       `json:"uploaded_at"`
}

func (f *ResultFile) ToResponse() *ResultFileResponse {
	return &ResultFileResponse{
		ID:         f.ID,
		PublicID:   f.PublicID,
		Filename:   f.Filename,
		FileType:   f.FileType,
		Size:       f.Size,
		UploadedAt: f.UploadedAt,
	}
}

// ResultBlob represents the result_blobs table: content-addressed file
// bodies, deduplicated by SHA-256.
type ResultBlob struct {
	Hash      string    `gorm:"primaryKey;size:64" json:"hash"`
	Content   []byte    `gorm:"type:longblob;not null" json:"-"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ResultBlob) TableName() string {
	return "result_blobs"
}

// ============================================================
// Notifications
// ============================================================

// StaffNotification represents the staff_notifications table: the
// outreach queue prompting staff to contact a patient.
type StaffNotification struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	PublicID     string                `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	PatientName  string                `gorm:"size:150;not null" json:"patient_name"`
	PatientPhone string                `gorm:"size:20;not null" json:"patient_phone"`
	LabTestID    uint                  `gorm:"index;not null" json:"lab_test_id"`
	Status       domain.OutreachStatus `gorm:"size:20;not null;default:'new';index" json:"status"`
	ContactedAt  *time.Time            `json:"contacted_at,omitempty"`
	LocationLat  *float64              `json:"location_lat,omitempty"`
	LocationLng  *float64              `json:"location_lng,omitempty"`
	CreatedAt    time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

func (StaffNotification) TableName() string {
	return "staff_notifications"
}

// ClientNotification represents the client_notifications table: one row
// per (patient, test) completion notice. The unique pair makes the
// insert idempotent; SeenAt replaces the legacy per-browser flag map.
type ClientNotification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PatientID uint       `gorm:"uniqueIndex:idx_client_notif_patient_test;not null" json:"patient_id"`
	LabTestID uint       `gorm:"uniqueIndex:idx_client_notif_patient_test;not null" json:"lab_test_id"`
	Message   string     `gorm:"size:255;not null" json:"message"`
	SeenAt    *time.Time `json:"seen_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ClientNotification) TableName() string {
	return "client_notifications"
}

// ============================================================
// Accounting
// ============================================================

// LedgerEntry represents the ledger_entries table. Append-only; the
// balance is recomputed from the full set on every read.
type LedgerEntry struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	PublicID  string           `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	EntryType domain.EntryType `gorm:"size:10;not null;index" json:"entry_type"`
	Label     string           `gorm:"size:200;not null" json:"label"`
	Amount    float64          `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedBy uint             `gorm:"not null" json:"created_by"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LabNeed represents the lab_needs table: free-text supply/financial
// notes, unlinked to ledger entries.
type LabNeed struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Note      string    `gorm:"size:500;not null" json:"note"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LabNeed) TableName() string {
	return "lab_needs"
}

// ============================================================
// Catalog (Master)
// ============================================================

// TestTemplate represents the test_templates table: the chemistry test
// catalog staff pick from when registering a test.
type TestTemplate struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Code           string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name           string         `gorm:"size:150;not null" json:"name"`
	Unit           string         `gorm:"size:20" json:"unit"`
	ReferenceRange string         `gorm:"size:50" json:"reference_range"`
	Price          float64        `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestTemplate) TableName() string {
	return "test_templates"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates/updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Patient{},
		&LabTest{},
		&ResultFile{},
		&ResultBlob{},
		&StaffNotification{},
		&ClientNotification{},
		&LedgerEntry{},
		&LabNeed{},
		&TestTemplate{},
	)
}

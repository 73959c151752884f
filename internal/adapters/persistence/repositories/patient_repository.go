package repositories

import (
	"context"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// patientRepository implements PatientRepository interface
type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

// Create creates a new patient record
func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

// CreateWithCredential creates the patient and its login account
// atomically so a crash can never leave a patient without a credential
// or a credential pointing at nothing.
func (r *patientRepository) CreateWithCredential(ctx context.Context, patient *models.Patient, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(patient).Error; err != nil {
			return err
		}
		user.PatientID = &patient.ID
		return tx.Create(user).Error
	})
}

// DeleteWithCredential soft-deletes the patient and revokes its login
// account in one transaction. Lab tests referencing the patient stay.
func (r *patientRepository) DeleteWithCredential(ctx context.Context, patientID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Patient{}, patientID).Error; err != nil {
			return err
		}
		return tx.Where("patient_id = ?", patientID).Delete(&models.User{}).Error
	})
}

// GetByID gets a patient by internal ID
func (r *patientRepository) GetByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// GetByPublicID gets a patient by public ID
func (r *patientRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// Update updates a patient record
func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Save(patient).Error
}

// Delete soft deletes a patient. Lab tests referencing the patient are
// left untouched.
func (r *patientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Patient{}, id).Error
}

// List lists patients with pagination, newest first
func (r *patientRepository) List(ctx context.Context, offset, limit int) ([]*models.Patient, int64, error) {
	var patients []*models.Patient
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

// Search matches the term as a substring of name or phone
func (r *patientRepository) Search(ctx context.Context, term string, offset, limit int) ([]*models.Patient, int64, error) {
	var patients []*models.Patient
	var total int64

	like := "%" + term + "%"
	query := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("name LIKE ? OR phone LIKE ?", like, like)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

// CountAll counts registered patients
func (r *patientRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&count).Error
	return count, err
}

// CountCreatedSince counts patients registered at or after the given time
func (r *patientRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// ListCreatedSince lists patients registered at or after the given time
func (r *patientRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*models.Patient, error) {
	var patients []*models.Patient
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&patients).Error
	return patients, err
}

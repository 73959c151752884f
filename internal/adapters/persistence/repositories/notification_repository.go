package repositories

import (
	"context"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// staffNotificationRepository implements StaffNotificationRepository
type staffNotificationRepository struct {
	db *gorm.DB
}

// NewStaffNotificationRepository creates a new outreach queue repository
func NewStaffNotificationRepository(db *gorm.DB) StaffNotificationRepository {
	return &staffNotificationRepository{db: db}
}

// Create appends an outreach entry
func (r *staffNotificationRepository) Create(ctx context.Context, notif *models.StaffNotification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

// GetByPublicID gets an outreach entry by public ID
func (r *staffNotificationRepository) GetByPublicID(ctx context.Context, publicID string) (*models.StaffNotification, error) {
	var notif models.StaffNotification
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&notif).Error
	if err != nil {
		return nil, err
	}
	return &notif, nil
}

// Update saves an outreach entry
func (r *staffNotificationRepository) Update(ctx context.Context, notif *models.StaffNotification) error {
	return r.db.WithContext(ctx).Save(notif).Error
}

// List lists outreach entries, optionally filtered by status, newest first
func (r *staffNotificationRepository) List(ctx context.Context, status domain.OutreachStatus, offset, limit int) ([]*models.StaffNotification, int64, error) {
	var notifs []*models.StaffNotification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StaffNotification{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifs).Error; err != nil {
		return nil, 0, err
	}

	return notifs, total, nil
}

// CountByStatus counts outreach entries in a status
func (r *staffNotificationRepository) CountByStatus(ctx context.Context, status domain.OutreachStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StaffNotification{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ListStaleNew lists entries still new and created before the cutoff
func (r *staffNotificationRepository) ListStaleNew(ctx context.Context, olderThan time.Time) ([]*models.StaffNotification, error) {
	var notifs []*models.StaffNotification
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.OutreachNew, olderThan).
		Order("created_at ASC").
		Find(&notifs).Error
	return notifs, err
}

// clientNotificationRepository implements ClientNotificationRepository
type clientNotificationRepository struct {
	db *gorm.DB
}

// NewClientNotificationRepository creates a new completion-notice repository
func NewClientNotificationRepository(db *gorm.DB) ClientNotificationRepository {
	return &clientNotificationRepository{db: db}
}

// CreateIfAbsent inserts the notice; the unique (patient, test) index
// plus DoNothing makes repeated completion events idempotent.
func (r *clientNotificationRepository) CreateIfAbsent(ctx context.Context, notif *models.ClientNotification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(notif).Error
}

// ListUnseen lists a patient's unseen completion notices
func (r *clientNotificationRepository) ListUnseen(ctx context.Context, patientID uint) ([]*models.ClientNotification, error) {
	var notifs []*models.ClientNotification
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND seen_at IS NULL", patientID).
		Order("created_at DESC").
		Find(&notifs).Error
	return notifs, err
}

// MarkSeen acknowledges a notice. Scoped to the patient so a client can
// only acknowledge their own.
func (r *clientNotificationRepository) MarkSeen(ctx context.Context, patientID, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.ClientNotification{}).
		Where("id = ? AND patient_id = ?", id, patientID).
		Update("seen_at", &now).Error
}

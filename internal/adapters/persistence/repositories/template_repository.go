package repositories

import (
	"context"

	"mostaqbal-lab/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// templateRepository implements TestTemplateRepository
type templateRepository struct {
	db *gorm.DB
}

// NewTestTemplateRepository creates a new chemistry catalog repository
func NewTestTemplateRepository(db *gorm.DB) TestTemplateRepository {
	return &templateRepository{db: db}
}

// GetByCode gets a catalog entry by its short code
func (r *templateRepository) GetByCode(ctx context.Context, code string) (*models.TestTemplate, error) {
	var tpl models.TestTemplate
	err := r.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List lists active catalog entries ordered by name
func (r *templateRepository) List(ctx context.Context) ([]*models.TestTemplate, error) {
	var tpls []*models.TestTemplate
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&tpls).Error
	return tpls, err
}

// Create adds a catalog entry
func (r *templateRepository) Create(ctx context.Context, tpl *models.TestTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// Count counts all catalog entries including inactive ones
func (r *templateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TestTemplate{}).Count(&count).Error
	return count, err
}

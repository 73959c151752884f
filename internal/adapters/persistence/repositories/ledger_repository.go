package repositories

import (
	"context"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
)

// ledgerRepository implements LedgerRepository
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new accounting repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// CreateEntry records an income or expense entry
func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListEntries lists entries, optionally filtered by type, newest first
func (r *ledgerRepository) ListEntries(ctx context.Context, entryType domain.EntryType, offset, limit int) ([]*models.LedgerEntry, int64, error) {
	var entries []*models.LedgerEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{})
	if entryType != "" {
		query = query.Where("entry_type = ?", entryType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Summary recomputes income, expenses and balance from all live entries.
// Totals are never stored, so deleting an entry self-corrects the balance.
func (r *ledgerRepository) Summary(ctx context.Context) (*LedgerSummary, error) {
	var summary LedgerSummary

	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END), 0) AS income,"+
			" COALESCE(SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END), 0) AS expenses",
			domain.EntryIncome, domain.EntryExpense).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	summary.Balance = summary.Income - summary.Expenses
	return &summary, nil
}

// DeleteEntry soft-deletes a ledger entry
func (r *ledgerRepository) DeleteEntry(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LedgerEntry{}, id).Error
}

// GetEntryByPublicID gets an entry by public ID
func (r *ledgerRepository) GetEntryByPublicID(ctx context.Context, publicID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateNeed records a supply need
func (r *ledgerRepository) CreateNeed(ctx context.Context, need *models.LabNeed) error {
	return r.db.WithContext(ctx).Create(need).Error
}

// ListNeeds lists supply needs, newest first
func (r *ledgerRepository) ListNeeds(ctx context.Context, offset, limit int) ([]*models.LabNeed, int64, error) {
	var needs []*models.LabNeed
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LabNeed{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&needs).Error; err != nil {
		return nil, 0, err
	}

	return needs, total, nil
}

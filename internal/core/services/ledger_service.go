package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger errors
var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrLabelRequired = errors.New("entry label is required")
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrInvalidEntry  = errors.New("entry type must be income or expense")
	ErrNoteRequired  = errors.New("note text is required")
)

// LedgerService handles lab accounting: income/expense entries, the
// recomputed balance and the supply needs list.
type LedgerService struct {
	ledgerRepo repositories.LedgerRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledgerRepo repositories.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// CreateEntryInput represents a ledger entry input
type CreateEntryInput struct {
	EntryType domain.EntryType `json:"entry_type" validate:"required"`
	Label     string           `json:"label" validate:"required"`
	Amount    float64          `json:"amount" validate:"required"`
}

// CreateEntry records an income or expense entry
func (s *LedgerService) CreateEntry(ctx context.Context, userID uint, input *CreateEntryInput) (*models.LedgerEntry, error) {
	if !input.EntryType.Valid() {
		return nil, ErrInvalidEntry
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, ErrLabelRequired
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := &models.LedgerEntry{
		PublicID:  uuid.New().String(),
		EntryType: input.EntryType,
		Label:     label,
		Amount:    input.Amount,
		CreatedBy: userID,
	}

	if err := s.ledgerRepo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	log.Printf("✅ Ledger entry recorded: %s %.2f (%s)", entry.EntryType, entry.Amount, entry.Label)
	return entry, nil
}

// ListEntries lists entries, optionally filtered by type
func (s *LedgerService) ListEntries(ctx context.Context, entryType domain.EntryType, offset, limit int) ([]*models.LedgerEntry, int64, error) {
	if entryType != "" && !entryType.Valid() {
		return nil, 0, ErrInvalidEntry
	}
	return s.ledgerRepo.ListEntries(ctx, entryType, offset, limit)
}

// DeleteEntry removes an entry. The balance self-corrects on the next
// summary read since totals are never stored.
func (s *LedgerService) DeleteEntry(ctx context.Context, publicID string) error {
	entry, err := s.ledgerRepo.GetEntryByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	if err := s.ledgerRepo.DeleteEntry(ctx, entry.ID); err != nil {
		return err
	}

	log.Printf("✅ Ledger entry deleted: %s", entry.PublicID)
	return nil
}

// Summary recomputes income, expenses and balance
func (s *LedgerService) Summary(ctx context.Context) (*repositories.LedgerSummary, error) {
	return s.ledgerRepo.Summary(ctx)
}

// CreateNeed records a free-text supply need
func (s *LedgerService) CreateNeed(ctx context.Context, userID uint, note string) (*models.LabNeed, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrNoteRequired
	}

	need := &models.LabNeed{
		Note:      note,
		CreatedBy: userID,
	}
	if err := s.ledgerRepo.CreateNeed(ctx, need); err != nil {
		return nil, err
	}
	return need, nil
}

// ListNeeds lists supply needs
func (s *LedgerService) ListNeeds(ctx context.Context, offset, limit int) ([]*models.LabNeed, int64, error) {
	return s.ledgerRepo.ListNeeds(ctx, offset, limit)
}

package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"mostaqbal-lab/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// blobRepository implements BlobRepository over the result_blobs table.
// Content is addressed by SHA-256, so identical uploads share one row.
type blobRepository struct {
	db *gorm.DB
}

// NewBlobRepository creates a new blob repository
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepository{db: db}
}

// Put stores content under its hash. Re-storing existing content is a
// no-op thanks to the DoNothing conflict clause.
func (r *blobRepository) Put(ctx context.Context, content []byte) (string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	blob := &models.ResultBlob{
		Hash:    hash,
		Content: content,
		Size:    int64(len(content)),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(blob).Error
	if err != nil {
		return "", err
	}
	return hash, nil
}

// Get fetches a blob by hash
func (r *blobRepository) Get(ctx context.Context, hash string) (*models.ResultBlob, error) {
	var blob models.ResultBlob
	err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &blob, nil
}

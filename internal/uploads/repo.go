package uploads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/db"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository wraps GORM operations for upload_records.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// Create persists a new unused upload record. A path collision surfaces
// as Conflict.
func (r *Repository) Create(ctx context.Context, record *models.UploadRecord) (*models.UploadRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if db.IsUniqueViolation(err, "upload_records_path_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "upload path already exists")
		}
		return nil, err
	}
	return record, nil
}

// FindByPath retrieves an upload record by its stored path.
func (r *Repository) FindByPath(ctx context.Context, path string) (*models.UploadRecord, error) {
	var record models.UploadRecord
	if err := r.db.WithContext(ctx).First(&record, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "upload record not found")
		}
		return nil, err
	}
	return &record, nil
}

// ClaimByPath flips an unused record to used inside the provided
// transaction. The conditional update is the concurrency guard: when two
// requests race for the same path, exactly one claim succeeds and the
// other gets Conflict.
func (r *Repository) ClaimByPath(ctx context.Context, tx *gorm.DB, path string) (*models.UploadRecord, error) {
	var record models.UploadRecord
	if err := tx.WithContext(ctx).First(&record, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "upload record not found")
		}
		return nil, err
	}

	result := tx.WithContext(ctx).
		Model(&models.UploadRecord{}).
		Where("path = ? AND used = ?", path, false).
		Update("used", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "upload already claimed")
	}

	record.Used = true
	return &record, nil
}

// ReleaseByPath flips a record back to unused. Missing records and
// already-unused records are a no-op so release stays idempotent.
func (r *Repository) ReleaseByPath(ctx context.Context, tx *gorm.DB, path string) error {
	return tx.WithContext(ctx).
		Model(&models.UploadRecord{}).
		Where("path = ?", path).
		Update("used", false).
		Error
}

// Delete hard-removes an upload record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.UploadRecord{}).Error
}

// ListUnusedOlderThan returns unused records created before the cutoff.
func (r *Repository) ListUnusedOlderThan(ctx context.Context, cutoff time.Time) ([]models.UploadRecord, error) {
	var records []models.UploadRecord
	err := r.db.WithContext(ctx).
		Where("used = ? AND created_at < ?", false, cutoff).
		Order("created_at ASC").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

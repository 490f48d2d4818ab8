package licenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

// Repository exposes license persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a license repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// Create inserts a new license row.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, license *models.License) error {
	return r.conn(ctx, tx).Create(license).Error
}

// FindByKeyForUpdate loads and row-locks the license until tx ends.
func (r *Repository) FindByKeyForUpdate(ctx context.Context, tx *gorm.DB, key string) (*models.License, error) {
	var license models.License
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("key = ?", key).
		Take(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// FindByOwner returns the license currently bound to ownerID.
func (r *Repository) FindByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) (*models.License, error) {
	var license models.License
	if err := r.conn(ctx, tx).Where("owner_id = ?", ownerID).Take(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// SetOwner binds the license to ownerID, or unbinds it when ownerID is nil.
func (r *Repository) SetOwner(ctx context.Context, tx *gorm.DB, licenseID uuid.UUID, ownerID *uuid.UUID) error {
	return r.conn(ctx, tx).
		Model(&models.License{}).
		Where("id = ?", licenseID).
		Updates(map[string]any{"owner_id": ownerID, "updated_at": time.Now().UTC()}).Error
}

// ListOwnedEndingBetween returns bound licenses whose end date falls in [from, to].
func (r *Repository) ListOwnedEndingBetween(ctx context.Context, from, to time.Time) ([]models.License, error) {
	var rows []models.License
	err := r.db.WithContext(ctx).
		Where("owner_id IS NOT NULL").
		Where("end_date >= ? AND end_date <= ?", from, to).
		Order("end_date ASC").
		Find(&rows).Error
	return rows, err
}

package warehouses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const locationColumns = "locations.id, locations.warehouse_id, warehouses.name AS warehouse_name, " +
	"locations.name, locations.created_at, locations.updated_at"

// Repository holds warehouse topology tables. Locations are scoped through
// their warehouse and batches through their product.
type Repository struct {
	repo.Base
	Warehouses *repo.Scoped[models.Warehouse]
	Locations  *repo.Scoped[models.Location]
	Batches    *repo.Scoped[models.Batch]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Base:       repo.NewBase(db),
		Warehouses: repo.NewScoped[models.Warehouse](db, "warehouses", repo.OwnedBy("warehouses")),
		Locations:  repo.NewScoped[models.Location](db, "locations", repo.ThroughWarehouse("locations")),
		Batches:    repo.NewScoped[models.Batch](db, "batches", repo.ThroughProduct("batches", "product_id")),
	}
}

func (r *Repository) locationQuery(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Table("locations").
		Select(locationColumns).
		Joins("JOIN warehouses ON warehouses.id = locations.warehouse_id").
		Where("warehouses.owner_id = ?", ownerID)
}

func (r *Repository) GetLocationView(ctx context.Context, ownerID, id uuid.UUID) (*LocationView, error) {
	var rows []LocationView
	if err := r.locationQuery(ctx, ownerID).Where("locations.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) ListLocationViews(ctx context.Context, ownerID uuid.UUID, warehouseID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]LocationView, error) {
	query := r.locationQuery(ctx, ownerID)
	if warehouseID != nil {
		query = query.Where("locations.warehouse_id = ?", *warehouseID)
	}
	var rows []LocationView
	err := query.Scopes(pagination.Keyset("locations", cursor, limit)).Scan(&rows).Error
	return rows, err
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type repository struct {
	repo.Base
	orders *repo.Scoped[models.Order]
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		Base:   repo.NewBase(db),
		orders: repo.NewScoped[models.Order](db, "orders", repo.OwnedBy("orders")),
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx), orders: r.orders.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.orders.Create(ctx, order); err != nil {
		return err
	}
	return r.insertItems(ctx, order.ID, order.Items)
}

func (r *repository) Find(ctx context.Context, ownerID, id uuid.UUID) (*models.Order, error) {
	return r.orders.Get(ctx, ownerID, id)
}

// FindForUpdate locks the order row until the surrounding transaction ends.
func (r *repository) FindForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(repo.OwnedBy("orders")(ownerID)).
		Where("orders.id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, ownerID uuid.UUID, filter Filter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.orders.List(ctx, ownerID, cursor, limit, func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("orders.status = ?", filter.Status)
		}
		if filter.OrderType != "" {
			db = db.Where("orders.order_type = ?", filter.OrderType)
		}
		return db
	})
}

func (r *repository) Update(ctx context.Context, ownerID uuid.UUID, order *models.Order) error {
	return r.orders.Update(ctx, ownerID, order)
}

func (r *repository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := r.DB(ctx).Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.orders.Delete(ctx, ownerID, id)
}

func (r *repository) LoadItems(ctx context.Context, orderIDs ...uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	out := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var items []models.OrderItem
	err := r.DB(ctx).
		Where("order_id IN ?", orderIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

// ReplaceItems drops the order's items and inserts the given set.
func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, orderID, items)
}

func (r *repository) insertItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	if err := r.DB(ctx).Model(&models.Product{}).Select("id, name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *repository) CountOwnedProducts(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Product{}).
		Scopes(repo.OwnedBy("products")(ownerID)).
		Where("products.id IN ?", ids).
		Count(&count).Error
	return count, err
}

func (r *repository) SupplierOwned(ctx context.Context, ownerID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Supplier{}).
		Scopes(repo.OwnedBy("suppliers")(ownerID)).
		Where("suppliers.id = ?", supplierID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) LocationOwned(ctx context.Context, ownerID, locationID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Location{}).
		Scopes(repo.ThroughWarehouse("locations")(ownerID)).
		Where("locations.id = ?", locationID).
		Count(&count).Error
	return count > 0, err
}

package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Repository runs the dashboard aggregates. Every query is scoped to one owner.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CountProducts(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Product{}).
		Scopes(repo.OwnedBy("products")(ownerID)).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountLowStock(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Product{}).
		Scopes(repo.OwnedBy("products")(ownerID)).
		Where(catalog.LowStockPredicate).
		Count(&count).Error
	return count, err
}

// Valuation is Σ(stock quantity × product cost price).
func (r *Repository) Valuation(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB(ctx).
		Table("stocks").
		Select("COALESCE(SUM(stocks.quantity * products.cost_price), 0)").
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("products.owner_id = ?", ownerID).
		Row().Scan(&total)
	return total, err
}

func (r *Repository) ItemsSold(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB(ctx).
		Model(&models.InventoryTransaction{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scopes(repo.OwnedBy("inventory_transactions")(ownerID)).
		Where("transaction_type = ?", enums.TransactionSalesOrder).
		Row().Scan(&total)
	return total, err
}

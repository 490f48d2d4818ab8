package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const (
	stockColumns = "stocks.id, stocks.product_id, products.name AS product_name, stocks.location_id, " +
		"locations.name AS location_name, warehouses.name AS warehouse_name, stocks.batch_id, stocks.quantity, " +
		"stocks.created_at, stocks.updated_at"
	transactionColumns = "inventory_transactions.id, inventory_transactions.transaction_type, inventory_transactions.product_id, " +
		"products.name AS product_name, inventory_transactions.quantity, inventory_transactions.source_location_id, " +
		"inventory_transactions.destination_location_id, inventory_transactions.batch_id, inventory_transactions.reference, " +
		"inventory_transactions.created_at"
)

// Repository persists stock balances and the transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error)
	CountOwnedLocations(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
	FindBatch(ctx context.Context, productID, batchID uuid.UUID) (*models.Batch, error)
	LockStock(ctx context.Context, productID, locationID uuid.UUID, batchID *uuid.UUID) (*models.Stock, error)
	InsertStockIfAbsent(ctx context.Context, stock *models.Stock) (bool, error)
	SetStockQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, at time.Time) error
	TotalStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	GetStock(ctx context.Context, ownerID, id uuid.UUID) (*StockView, error)
	ListStock(ctx context.Context, ownerID uuid.UUID, filter StockFilter, cursor *pagination.Cursor, limit int) ([]StockView, error)
	GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*TransactionView, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter, cursor *pagination.Cursor, limit int) ([]TransactionView, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindProduct(ctx context.Context, ownerID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Scopes(repo.OwnedBy("products")(ownerID)).
		Where("products.id = ?", productID).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CountOwnedLocations(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Location{}).
		Scopes(repo.ThroughWarehouse("locations")(ownerID)).
		Where("locations.id IN ?", ids).
		Count(&count).Error
	return count, err
}

func (r *repository) FindBatch(ctx context.Context, productID, batchID uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	if err := r.DB(ctx).Where("id = ? AND product_id = ?", batchID, productID).Take(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// LockStock loads the balance row with FOR UPDATE. Callers must hold a transaction.
func (r *repository) LockStock(ctx context.Context, productID, locationID uuid.UUID, batchID *uuid.UUID) (*models.Stock, error) {
	query := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_id = ?", productID, locationID)
	if batchID == nil {
		query = query.Where("batch_id IS NULL")
	} else {
		query = query.Where("batch_id = ?", *batchID)
	}
	var stock models.Stock
	if err := query.Take(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// InsertStockIfAbsent reports false when a concurrent writer created the row first.
func (r *repository) InsertStockIfAbsent(ctx context.Context, stock *models.Stock) (bool, error) {
	res := r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(stock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetStockQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Stock{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"quantity": quantity, "updated_at": at}).Error
}

func (r *repository) TotalStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB(ctx).
		Model(&models.Stock{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", productID).
		Row().Scan(&total)
	return total, err
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) stockQuery(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Table("stocks").
		Select(stockColumns).
		Joins("JOIN products ON products.id = stocks.product_id").
		Joins("JOIN locations ON locations.id = stocks.location_id").
		Joins("JOIN warehouses ON warehouses.id = locations.warehouse_id").
		Where("products.owner_id = ?", ownerID)
}

func (r *repository) GetStock(ctx context.Context, ownerID, id uuid.UUID) (*StockView, error) {
	var rows []StockView
	if err := r.stockQuery(ctx, ownerID).Where("stocks.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) ListStock(ctx context.Context, ownerID uuid.UUID, filter StockFilter, cursor *pagination.Cursor, limit int) ([]StockView, error) {
	query := r.stockQuery(ctx, ownerID)
	if filter.ProductID != nil {
		query = query.Where("stocks.product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		query = query.Where("stocks.location_id = ?", *filter.LocationID)
	}
	var rows []StockView
	err := query.Scopes(pagination.Keyset("stocks", cursor, limit)).Scan(&rows).Error
	return rows, err
}

func (r *repository) transactionQuery(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Table("inventory_transactions").
		Select(transactionColumns).
		Joins("JOIN products ON products.id = inventory_transactions.product_id").
		Scopes(repo.OwnedBy("inventory_transactions")(ownerID))
}

func (r *repository) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*TransactionView, error) {
	var rows []TransactionView
	if err := r.transactionQuery(ctx, ownerID).Where("inventory_transactions.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	labelled(rows)
	return &rows[0], nil
}

func (r *repository) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter, cursor *pagination.Cursor, limit int) ([]TransactionView, error) {
	query := r.transactionQuery(ctx, ownerID)
	if filter.ProductID != nil {
		query = query.Where("inventory_transactions.product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("inventory_transactions.transaction_type = ?", filter.Type)
	}
	var rows []TransactionView
	if err := query.Scopes(pagination.Keyset("inventory_transactions", cursor, limit)).Scan(&rows).Error; err != nil {
		return nil, err
	}
	labelled(rows)
	return rows, nil
}

func labelled(rows []TransactionView) {
	for i := range rows {
		rows[i].TransactionTypeLabel = rows[i].TransactionType.Label()
	}
}

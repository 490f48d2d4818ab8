package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/ledger"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, ownerID, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, ownerID uuid.UUID, filter Filter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Update(ctx context.Context, ownerID uuid.UUID, order *models.Order) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	LoadItems(ctx context.Context, orderIDs ...uuid.UUID) (map[uuid.UUID][]models.OrderItem, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	CountOwnedProducts(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
	SupplierOwned(ctx context.Context, ownerID, supplierID uuid.UUID) (bool, error)
	LocationOwned(ctx context.Context, ownerID, locationID uuid.UUID) (bool, error)
}

// ledgerRecorder posts stock movements inside the order's transaction.
type ledgerRecorder interface {
	RecordTransactionTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in ledger.RecordInput) (*ledger.TransactionView, error)
	Observe(views ...ledger.TransactionView)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

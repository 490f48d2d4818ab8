package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// RecordInput describes one stock movement.
type RecordInput struct {
	Type                  enums.TransactionType `json:"transaction_type" validate:"required"`
	ProductID             uuid.UUID             `json:"product_id" validate:"required"`
	Quantity              decimal.Decimal       `json:"quantity"`
	SourceLocationID      *uuid.UUID            `json:"source_location_id"`
	DestinationLocationID *uuid.UUID            `json:"destination_location_id"`
	BatchID               *uuid.UUID            `json:"batch_id"`
	Reference             string                `json:"reference" validate:"max=100"`
}

// TransactionView is the transaction read model.
type TransactionView struct {
	ID                    uuid.UUID             `json:"id"`
	TransactionType       enums.TransactionType `json:"transaction_type"`
	TransactionTypeLabel  string                `json:"transaction_type_display" gorm:"-"`
	ProductID             uuid.UUID             `json:"product_id"`
	ProductName           string                `json:"product_name"`
	Quantity              decimal.Decimal       `json:"quantity"`
	SourceLocationID      *uuid.UUID            `json:"source_location_id"`
	DestinationLocationID *uuid.UUID            `json:"destination_location_id"`
	BatchID               *uuid.UUID            `json:"batch_id"`
	Reference             string                `json:"reference"`
	CreatedAt             time.Time             `json:"created_at"`
}

// ViewOf builds the read model for a freshly recorded transaction.
func ViewOf(t models.InventoryTransaction, productName string) TransactionView {
	return TransactionView{
		ID:                    t.ID,
		TransactionType:       t.TransactionType,
		TransactionTypeLabel:  t.TransactionType.Label(),
		ProductID:             t.ProductID,
		ProductName:           productName,
		Quantity:              t.Quantity,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		BatchID:               t.BatchID,
		Reference:             t.Reference,
		CreatedAt:             t.CreatedAt,
	}
}

// StockView is the stock read model.
type StockView struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	LocationID    uuid.UUID       `json:"location_id"`
	LocationName  string          `json:"location_name"`
	WarehouseName string          `json:"warehouse_name"`
	BatchID       *uuid.UUID      `json:"batch_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type StockFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
}

type TransactionFilter struct {
	ProductID *uuid.UUID
	Type      enums.TransactionType
}

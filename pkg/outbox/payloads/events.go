package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LicenseActivatedEvent is emitted when a key is bound to an account.
type LicenseActivatedEvent struct {
	LicenseID uuid.UUID `json:"license_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	EndDate   time.Time `json:"end_date"`
}

// LicenseExpiringSoonEvent warns the owner ahead of the end date.
type LicenseExpiringSoonEvent struct {
	LicenseID     uuid.UUID `json:"license_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	EndDate       time.Time `json:"end_date"`
	DaysRemaining int       `json:"days_remaining"`
}

// OrderCompletedEvent fires once an order's stock movements are posted.
type OrderCompletedEvent struct {
	OrderID        uuid.UUID   `json:"order_id"`
	OwnerID        uuid.UUID   `json:"owner_id"`
	OrderType      string      `json:"order_type"`
	LocationID     uuid.UUID   `json:"location_id"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
	CompletedAt    time.Time   `json:"completed_at"`
}

type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	OrderType   string    `json:"order_type"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// TransactionRecordedEvent mirrors one inventory_transactions row.
type TransactionRecordedEvent struct {
	TransactionID         uuid.UUID       `json:"transaction_id"`
	OwnerID               uuid.UUID       `json:"owner_id"`
	TransactionType       string          `json:"transaction_type"`
	ProductID             uuid.UUID       `json:"product_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	SourceLocationID      *uuid.UUID      `json:"source_location_id,omitempty"`
	DestinationLocationID *uuid.UUID      `json:"destination_location_id,omitempty"`
	BatchID               *uuid.UUID      `json:"batch_id,omitempty"`
	Reference             string          `json:"reference,omitempty"`
}

// StockLowEvent fires when a product's total on-hand crosses below its threshold.
type StockLowEvent struct {
	ProductID  uuid.UUID       `json:"product_id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	SKU        string          `json:"sku"`
	TotalStock decimal.Decimal `json:"total_stock"`
	Threshold  int             `json:"threshold"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Stock is the running balance for one (product, location, batch) triple.
// Only the ledger writes to it.
type Stock struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_stocks_product_location_batch"`
	LocationID uuid.UUID       `gorm:"column:location_id;type:uuid;not null;uniqueIndex:idx_stocks_product_location_batch"`
	BatchID    *uuid.UUID      `gorm:"column:batch_id;type:uuid;uniqueIndex:idx_stocks_product_location_batch"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Stock) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// InventoryTransaction is an immutable stock movement.
type InventoryTransaction struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID               uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	TransactionType       enums.TransactionType `gorm:"column:transaction_type;type:varchar(10);not null"`
	ProductID             uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity              decimal.Decimal       `gorm:"column:quantity;type:numeric(14,3);not null"`
	SourceLocationID      *uuid.UUID            `gorm:"column:source_location_id;type:uuid"`
	DestinationLocationID *uuid.UUID            `gorm:"column:destination_location_id;type:uuid"`
	BatchID               *uuid.UUID            `gorm:"column:batch_id;type:uuid"`
	Reference             string                `gorm:"column:reference;type:varchar(100);not null;default:''"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

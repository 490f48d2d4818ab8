package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Order is a purchase or sales order. Items carry their own price snapshot.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID             uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index"`
	OrderType           enums.OrderType   `gorm:"column:order_type;type:varchar(2);not null"`
	Status              enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'"`
	SupplierID          *uuid.UUID        `gorm:"column:supplier_id;type:uuid"`
	CustomerName        string            `gorm:"column:customer_name;type:varchar(200);not null;default:''"`
	CompletedLocationID *uuid.UUID        `gorm:"column:completed_location_id;type:uuid"`
	CompletedAt         *time.Time        `gorm:"column:completed_at"`
	Items               []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// TotalPrice is quantity times the unit price captured at order time.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

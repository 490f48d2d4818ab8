package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Warehouse struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"-"`
	Name      string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Address   string    `gorm:"column:address;not null;default:''" json:"address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}

// Location is a bin or shelf; it is owned through its warehouse.
type Location struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;type:varchar(50);not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Location) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// Batch tracks a production lot of a product; owned through the product.
type Batch struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	BatchNumber string     `gorm:"column:batch_number;type:varchar(100);not null"`
	ExpiryDate  *time.Time `gorm:"column:expiry_date;type:date"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Batch) TableName() string { return "batches" }

func (b *Batch) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

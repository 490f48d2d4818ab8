package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Category groups products; names are unique per owner.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_categories_owner_name" json:"-"`
	Name      string     `gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_categories_owner_name" json:"name"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid" json:"parent_id"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Supplier struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"-"`
	Name         string    `gorm:"column:name;type:varchar(200);not null" json:"name"`
	ContactEmail string    `gorm:"column:contact_email;not null" json:"contact_email"`
	Phone        string    `gorm:"column:phone;type:varchar(50);not null" json:"phone"`
	LeadTimeDays int       `gorm:"column:lead_time_days;not null" json:"lead_time_days"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Product is a stock keeping unit; the SKU is unique per owner, not globally.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID           uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_products_owner_sku"`
	CategoryID        *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name              string          `gorm:"column:name;type:varchar(255);not null"`
	SKU               string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex:idx_products_owner_sku"`
	Barcode           *string         `gorm:"column:barcode;type:varchar(100)"`
	Description       string          `gorm:"column:description;not null;default:''"`
	CostPrice         decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SellingPrice      decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	UOM               string          `gorm:"column:uom;type:varchar(20);not null;default:'Each'"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null"`
	ABCClass          enums.ABCClass  `gorm:"column:abc_classification;type:varchar(1);not null;default:'C'"`
	IsBatchTracked    bool            `gorm:"column:is_batch_tracked;not null;default:false"`
	IsKit             bool            `gorm:"column:is_kit;not null;default:false"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// KitComponent links a kit product to one of the products it bundles.
type KitComponent struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ParentProductID uuid.UUID       `gorm:"column:parent_product_id;type:uuid;not null;uniqueIndex:idx_kit_components_pair" json:"parent_product_id"`
	ChildProductID  uuid.UUID       `gorm:"column:child_product_id;type:uuid;not null;uniqueIndex:idx_kit_components_pair" json:"child_product_id"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null" json:"quantity"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (KitComponent) TableName() string { return "product_kit_components" }

func (k *KitComponent) BeforeCreate(*gorm.DB) error {
	assignID(&k.ID)
	return nil
}

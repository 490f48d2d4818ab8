package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// CategoryInput is the writable shape of a category.
type CategoryInput struct {
	Name     string     `json:"name" validate:"required,max=100"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func CategoryInputFrom(c *models.Category) CategoryInput {
	return CategoryInput{Name: c.Name, ParentID: c.ParentID}
}

type SupplierInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=50"`
	LeadTimeDays *int   `json:"lead_time_days" validate:"omitempty,min=0"`
}

func SupplierInputFrom(s *models.Supplier) SupplierInput {
	days := s.LeadTimeDays
	return SupplierInput{Name: s.Name, ContactEmail: s.ContactEmail, Phone: s.Phone, LeadTimeDays: &days}
}

// ProductInput is the writable shape of a product. Zero values fall back to
// the column defaults on create.
type ProductInput struct {
	CategoryID        *uuid.UUID      `json:"category_id"`
	Name              string          `json:"name" validate:"required,max=255"`
	SKU               string          `json:"sku" validate:"required,max=50"`
	Barcode           *string         `json:"barcode" validate:"omitempty,max=100"`
	Description       string          `json:"description"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	UOM               string          `json:"uom" validate:"omitempty,max=20"`
	LowStockThreshold *int            `json:"low_stock_threshold" validate:"omitempty,min=0"`
	ABCClassification enums.ABCClass  `json:"abc_classification" validate:"omitempty,oneof=A B C"`
	IsBatchTracked    bool            `json:"is_batch_tracked"`
	IsKit             bool            `json:"is_kit"`
}

func ProductInputFrom(p *models.Product) ProductInput {
	threshold := p.LowStockThreshold
	return ProductInput{
		CategoryID:        p.CategoryID,
		Name:              p.Name,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Description:       p.Description,
		CostPrice:         p.CostPrice,
		SellingPrice:      p.SellingPrice,
		UOM:               p.UOM,
		LowStockThreshold: &threshold,
		ABCClassification: p.ABCClass,
		IsBatchTracked:    p.IsBatchTracked,
		IsKit:             p.IsKit,
	}
}

func (in ProductInput) apply(p *models.Product) {
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.SKU = strings.TrimSpace(in.SKU)
	p.Barcode = in.Barcode
	p.Description = in.Description
	p.CostPrice = in.CostPrice
	p.SellingPrice = in.SellingPrice
	p.UOM = in.UOM
	if p.UOM == "" {
		p.UOM = "Each"
	}
	p.LowStockThreshold = 10
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	p.ABCClass = in.ABCClassification
	if p.ABCClass == "" {
		p.ABCClass = enums.ABCClassLow
	}
	p.IsBatchTracked = in.IsBatchTracked
	p.IsKit = in.IsKit
}

// ComponentInput adds a child product to a kit.
type ComponentInput struct {
	ChildProductID uuid.UUID       `json:"child_product_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// ProductView is the product read model.
type ProductView struct {
	ID                uuid.UUID       `json:"id"`
	CategoryID        *uuid.UUID      `json:"category_id"`
	CategoryName      *string         `json:"category_name"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Barcode           *string         `json:"barcode"`
	Description       string          `json:"description"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	UOM               string          `json:"uom"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	ABCClassification enums.ABCClass  `json:"abc_classification"`
	IsBatchTracked    bool            `json:"is_batch_tracked"`
	IsKit             bool            `json:"is_kit"`
	TotalStock        decimal.Decimal `json:"total_stock"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// productRow is the scan target for product queries joined with stock and category.
type productRow struct {
	models.Product `gorm:"embedded"`
	TotalStock     decimal.Decimal `gorm:"column:total_stock"`
	CategoryName   *string         `gorm:"column:category_name"`
}

func (r productRow) view() ProductView {
	p := r.Product
	return ProductView{
		ID:                p.ID,
		CategoryID:        p.CategoryID,
		CategoryName:      r.CategoryName,
		Name:              p.Name,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Description:       p.Description,
		CostPrice:         p.CostPrice,
		SellingPrice:      p.SellingPrice,
		UOM:               p.UOM,
		LowStockThreshold: p.LowStockThreshold,
		ABCClassification: p.ABCClass,
		IsBatchTracked:    p.IsBatchTracked,
		IsKit:             p.IsKit,
		TotalStock:        r.TotalStock,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ComponentView describes one kit member.
type ComponentView struct {
	ID              uuid.UUID       `json:"id"`
	ParentProductID uuid.UUID       `json:"parent_product_id"`
	ChildProductID  uuid.UUID       `json:"child_product_id"`
	ChildName       string          `json:"child_name"`
	ChildSKU        string          `json:"child_sku"`
	Quantity        decimal.Decimal `json:"quantity"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

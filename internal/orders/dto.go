package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/internal/ledger"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

const msgOrderProcessed = "Order processed and stock updated"

// ItemInput is one requested line. UnitPrice is snapshotted as given.
type ItemInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderInput is the writable shape of an order. A nil Items slice leaves the
// stored items untouched on update; an empty one clears them.
type OrderInput struct {
	OrderType    enums.OrderType `json:"order_type" validate:"required"`
	SupplierID   *uuid.UUID      `json:"supplier_id"`
	CustomerName string          `json:"customer_name" validate:"max=200"`
	Items        []ItemInput     `json:"items" validate:"omitempty,dive"`
}

// InputFrom seeds a partial update with the stored order.
func InputFrom(view OrderView) OrderInput {
	items := make([]ItemInput, len(view.Items))
	for i, item := range view.Items {
		items[i] = ItemInput{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return OrderInput{
		OrderType:    view.OrderType,
		SupplierID:   view.SupplierID,
		CustomerName: view.CustomerName,
		Items:        items,
	}
}

type ItemView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderView struct {
	ID                  uuid.UUID         `json:"id"`
	OrderType           enums.OrderType   `json:"order_type"`
	Status              enums.OrderStatus `json:"status"`
	SupplierID          *uuid.UUID        `json:"supplier_id"`
	CustomerName        string            `json:"customer_name"`
	CompletedLocationID *uuid.UUID        `json:"completed_location_id"`
	CompletedAt         *time.Time        `json:"completed_at"`
	Items               []ItemView        `json:"items"`
	TotalAmount         decimal.Decimal   `json:"total_amount"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func viewOf(order models.Order, items []models.OrderItem, names map[uuid.UUID]string) OrderView {
	view := OrderView{
		ID:                  order.ID,
		OrderType:           order.OrderType,
		Status:              order.Status,
		SupplierID:          order.SupplierID,
		CustomerName:        order.CustomerName,
		CompletedLocationID: order.CompletedLocationID,
		CompletedAt:         order.CompletedAt,
		Items:               make([]ItemView, 0, len(items)),
		TotalAmount:         decimal.Zero,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	for _, item := range items {
		total := item.TotalPrice()
		view.Items = append(view.Items, ItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: names[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  total,
		})
		view.TotalAmount = view.TotalAmount.Add(total)
	}
	return view
}

// CompleteResult is the body returned by a successful completion.
type CompleteResult struct {
	Status       string                   `json:"status"`
	Order        OrderView                `json:"order"`
	Transactions []ledger.TransactionView `json:"transactions"`
}

type Filter struct {
	Status    enums.OrderStatus
	OrderType enums.OrderType
}

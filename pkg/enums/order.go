package enums

import "fmt"

// OrderType maps to the order_type enum in Postgres.
type OrderType string

const (
	OrderTypePurchase OrderType = "PO"
	OrderTypeSales    OrderType = "SO"
)

// IsValid reports whether the value is a known order type.
func (o OrderType) IsValid() bool {
	return o == OrderTypePurchase || o == OrderTypeSales
}

// ParseOrderType converts raw input into OrderType.
func ParseOrderType(value string) (OrderType, error) {
	candidate := OrderType(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid order type %q", value)
	}
	return candidate, nil
}

// LedgerTransactionType is the movement recorded when an order of this type completes.
func (o OrderType) LedgerTransactionType() TransactionType {
	if o == OrderTypePurchase {
		return TransactionPurchaseReceive
	}
	return TransactionSalesOrder
}

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusConfirmed,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateLicense              OutboxAggregateType = "license"
	AggregateOrder                OutboxAggregateType = "order"
	AggregateInventoryTransaction OutboxAggregateType = "inventory_transaction"
	AggregateProduct              OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLicense,
	AggregateOrder,
	AggregateInventoryTransaction,
	AggregateProduct,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventLicenseActivated             OutboxEventType = "license.activated"
	EventLicenseExpiringSoon          OutboxEventType = "license.expiring_soon"
	EventOrderCompleted               OutboxEventType = "order.completed"
	EventOrderCancelled               OutboxEventType = "order.cancelled"
	EventInventoryTransactionRecorded OutboxEventType = "inventory.transaction_recorded"
	EventStockLow                     OutboxEventType = "stock.low"
)

var validOutboxEventTypes = []OutboxEventType{
	EventLicenseActivated,
	EventLicenseExpiringSoon,
	EventOrderCompleted,
	EventOrderCancelled,
	EventInventoryTransactionRecorded,
	EventStockLow,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

package enums

import "fmt"

// TransactionType maps to the inventory_transaction_type enum in Postgres.
type TransactionType string

const (
	TransactionPurchaseReceive  TransactionType = "IN"
	TransactionSalesOrder       TransactionType = "OUT"
	TransactionInternalTransfer TransactionType = "MOVE"
	TransactionAdjustment       TransactionType = "ADJ"
	TransactionReturn           TransactionType = "RET"
)

var validTransactionTypes = []TransactionType{
	TransactionPurchaseReceive,
	TransactionSalesOrder,
	TransactionInternalTransfer,
	TransactionAdjustment,
	TransactionReturn,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// Label returns the human readable name of the movement.
func (t TransactionType) Label() string {
	switch t {
	case TransactionPurchaseReceive:
		return "Purchase Receive"
	case TransactionSalesOrder:
		return "Sales Order"
	case TransactionInternalTransfer:
		return "Internal Transfer"
	case TransactionAdjustment:
		return "Adjustment/Count"
	case TransactionReturn:
		return "Return (RMA)"
	default:
		return string(t)
	}
}

// IsValid reports whether the value matches the canonical inventory_transaction_type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScopeFunc restricts a query to rows visible to one owner.
type ScopeFunc func(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB

// OwnedBy filters tables that carry their own owner_id column.
func OwnedBy(table string) ScopeFunc {
	column := table + ".owner_id = ?"
	return func(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(column, ownerID)
		}
	}
}

// ThroughWarehouse filters rows whose warehouse_id points at one of the
// owner's warehouses.
func ThroughWarehouse(table string) ScopeFunc {
	column := table + ".warehouse_id IN (SELECT id FROM warehouses WHERE owner_id = ?)"
	return func(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(column, ownerID)
		}
	}
}

// ThroughProduct filters rows whose product column points at one of the
// owner's products.
func ThroughProduct(table, productColumn string) ScopeFunc {
	column := table + "." + productColumn + " IN (SELECT id FROM products WHERE owner_id = ?)"
	return func(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(column, ownerID)
		}
	}
}

package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert so rows created through
// sqlite (which has no gen_random_uuid) still get ids.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&User{},
		&License{},
		&Category{},
		&Supplier{},
		&Product{},
		&KitComponent{},
		&Warehouse{},
		&Location{},
		&Batch{},
		&Stock{},
		&InventoryTransaction{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}

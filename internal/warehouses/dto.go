package warehouses

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

type WarehouseInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address"`
}

func WarehouseInputFrom(w *models.Warehouse) WarehouseInput {
	return WarehouseInput{Name: w.Name, Address: w.Address}
}

type LocationInput struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=50"`
}

func LocationInputFrom(l *models.Location) LocationInput {
	return LocationInput{WarehouseID: l.WarehouseID, Name: l.Name}
}

// BatchInput accepts expiry_date as YYYY-MM-DD or RFC3339.
type BatchInput struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	BatchNumber string    `json:"batch_number" validate:"required,max=100"`
	ExpiryDate  *Date     `json:"expiry_date"`
}

func BatchInputFrom(b *models.Batch) BatchInput {
	in := BatchInput{ProductID: b.ProductID, BatchNumber: b.BatchNumber}
	if b.ExpiryDate != nil {
		d := Date(*b.ExpiryDate)
		in.ExpiryDate = &d
	}
	return in
}

// Date is a calendar date on the wire.
type Date time.Time

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	value := string(raw)
	if value == "null" {
		return nil
	}
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return &time.ParseError{Layout: time.DateOnly, Value: value}
	}
	value = value[1 : len(value)-1]
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return err
		}
	}
	*d = Date(parsed.UTC())
	return nil
}

// LocationView adds the parent warehouse name.
type LocationView struct {
	ID            uuid.UUID `json:"id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	WarehouseName string    `json:"warehouse_name"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BatchView is the batch read model.
type BatchView struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	ExpiryDate  *Date     `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func batchView(b models.Batch) BatchView {
	in := BatchInputFrom(&b)
	return BatchView{
		ID:          b.ID,
		ProductID:   b.ProductID,
		BatchNumber: b.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

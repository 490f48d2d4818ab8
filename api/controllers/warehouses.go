package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// WarehouseService covers warehouses, their locations and product batches.
type WarehouseService interface {
	CreateWarehouse(ctx context.Context, ownerID uuid.UUID, in warehouses.WarehouseInput) (*models.Warehouse, error)
	GetWarehouse(ctx context.Context, ownerID, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Warehouse], error)
	UpdateWarehouse(ctx context.Context, ownerID, id uuid.UUID, in warehouses.WarehouseInput) (*models.Warehouse, error)
	DeleteWarehouse(ctx context.Context, ownerID, id uuid.UUID) error

	CreateLocation(ctx context.Context, ownerID uuid.UUID, in warehouses.LocationInput) (*warehouses.LocationView, error)
	GetLocation(ctx context.Context, ownerID, id uuid.UUID) (*warehouses.LocationView, error)
	GetLocationModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, ownerID uuid.UUID, warehouseID *uuid.UUID, params pagination.Params) (pagination.Page[warehouses.LocationView], error)
	UpdateLocation(ctx context.Context, ownerID, id uuid.UUID, in warehouses.LocationInput) (*warehouses.LocationView, error)
	DeleteLocation(ctx context.Context, ownerID, id uuid.UUID) error

	CreateBatch(ctx context.Context, ownerID uuid.UUID, in warehouses.BatchInput) (*warehouses.BatchView, error)
	GetBatch(ctx context.Context, ownerID, id uuid.UUID) (*warehouses.BatchView, error)
	GetBatchModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Batch, error)
	ListBatches(ctx context.Context, ownerID uuid.UUID, productID *uuid.UUID, params pagination.Params) (pagination.Page[warehouses.BatchView], error)
	UpdateBatch(ctx context.Context, ownerID, id uuid.UUID, in warehouses.BatchInput) (*warehouses.BatchView, error)
	DeleteBatch(ctx context.Context, ownerID, id uuid.UUID) error
}

const (
	warehouseParam = "warehouseID"
	locationParam  = "locationID"
	batchParam     = "batchID"
)

func WarehouseCreate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateWarehouse, logg)
}

func WarehouseGet(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetWarehouse, warehouseParam, logg)
}

func WarehouseList(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc.ListWarehouses, logg)
}

func WarehouseUpdate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (warehouses.WarehouseInput, error) {
		warehouse, err := svc.GetWarehouse(ctx, ownerID, id)
		if err != nil {
			return warehouses.WarehouseInput{}, err
		}
		return warehouses.WarehouseInputFrom(warehouse), nil
	}
	return updateHandler(current, svc.UpdateWarehouse, warehouseParam, logg)
}

func WarehouseDelete(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteWarehouse, warehouseParam, logg)
}

func LocationCreate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateLocation, logg)
}

func LocationGet(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetLocation, locationParam, logg)
}

// LocationList filters by warehouse_id when present.
func LocationList(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return filteredList(svc.ListLocations, "warehouse_id", logg)
}

func LocationUpdate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (warehouses.LocationInput, error) {
		location, err := svc.GetLocationModel(ctx, ownerID, id)
		if err != nil {
			return warehouses.LocationInput{}, err
		}
		return warehouses.LocationInputFrom(location), nil
	}
	return updateHandler(current, svc.UpdateLocation, locationParam, logg)
}

func LocationDelete(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteLocation, locationParam, logg)
}

func BatchCreate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateBatch, logg)
}

func BatchGet(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetBatch, batchParam, logg)
}

// BatchList filters by product_id when present.
func BatchList(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return filteredList(svc.ListBatches, "product_id", logg)
}

func BatchUpdate(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (warehouses.BatchInput, error) {
		batch, err := svc.GetBatchModel(ctx, ownerID, id)
		if err != nil {
			return warehouses.BatchInput{}, err
		}
		return warehouses.BatchInputFrom(batch), nil
	}
	return updateHandler(current, svc.UpdateBatch, batchParam, logg)
}

func BatchDelete(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteBatch, batchParam, logg)
}

func filteredList[T any](list func(ctx context.Context, ownerID uuid.UUID, filter *uuid.UUID, params pagination.Params) (pagination.Page[T], error), key string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := validators.ParseQueryUUID(r, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := list(r.Context(), ownerID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

package warehouses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type productChecker interface {
	ProductExists(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

// Service manages warehouses, their locations and product batches.
type Service struct {
	repo     *Repository
	products productChecker
}

func NewService(r *Repository, products productChecker) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("warehouse repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker is required")
	}
	return &Service{repo: r, products: products}, nil
}

func (s *Service) CreateWarehouse(ctx context.Context, ownerID uuid.UUID, in WarehouseInput) (*models.Warehouse, error) {
	warehouse := &models.Warehouse{OwnerID: ownerID, Name: strings.TrimSpace(in.Name), Address: in.Address}
	if err := s.repo.Warehouses.Create(ctx, warehouse); err != nil {
		return nil, repo.Classify(err, "warehouse")
	}
	return warehouse, nil
}

func (s *Service) GetWarehouse(ctx context.Context, ownerID, id uuid.UUID) (*models.Warehouse, error) {
	warehouse, err := s.repo.Warehouses.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "warehouse")
	}
	return warehouse, nil
}

func (s *Service) ListWarehouses(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Warehouse], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Warehouse]{}, err
	}
	rows, err := s.repo.Warehouses.List(ctx, ownerID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[models.Warehouse]{}, repo.Classify(err, "warehouse")
	}
	return pagination.Trim(rows, params.Limit, func(w models.Warehouse) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	}), nil
}

func (s *Service) UpdateWarehouse(ctx context.Context, ownerID, id uuid.UUID, in WarehouseInput) (*models.Warehouse, error) {
	warehouse, err := s.GetWarehouse(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	warehouse.Name = strings.TrimSpace(in.Name)
	warehouse.Address = in.Address
	if err := s.repo.Warehouses.Update(ctx, ownerID, warehouse); err != nil {
		return nil, repo.Classify(err, "warehouse")
	}
	return warehouse, nil
}

func (s *Service) DeleteWarehouse(ctx context.Context, ownerID, id uuid.UUID) error {
	return repo.Classify(s.repo.Warehouses.Delete(ctx, ownerID, id), "warehouse")
}

// Locations

func (s *Service) CreateLocation(ctx context.Context, ownerID uuid.UUID, in LocationInput) (*LocationView, error) {
	if err := s.requireWarehouse(ctx, ownerID, in.WarehouseID); err != nil {
		return nil, err
	}
	location := &models.Location{WarehouseID: in.WarehouseID, Name: strings.TrimSpace(in.Name)}
	if err := s.repo.Locations.Create(ctx, location); err != nil {
		return nil, repo.Classify(err, "location")
	}
	return s.GetLocation(ctx, ownerID, location.ID)
}

func (s *Service) GetLocation(ctx context.Context, ownerID, id uuid.UUID) (*LocationView, error) {
	view, err := s.repo.GetLocationView(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "location")
	}
	return view, nil
}

func (s *Service) GetLocationModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.Locations.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "location")
	}
	return location, nil
}

func (s *Service) ListLocations(ctx context.Context, ownerID uuid.UUID, warehouseID *uuid.UUID, params pagination.Params) (pagination.Page[LocationView], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[LocationView]{}, err
	}
	rows, err := s.repo.ListLocationViews(ctx, ownerID, warehouseID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[LocationView]{}, repo.Classify(err, "location")
	}
	return pagination.Trim(rows, params.Limit, func(l LocationView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	}), nil
}

func (s *Service) UpdateLocation(ctx context.Context, ownerID, id uuid.UUID, in LocationInput) (*LocationView, error) {
	location, err := s.GetLocationModel(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireWarehouse(ctx, ownerID, in.WarehouseID); err != nil {
		return nil, err
	}
	location.WarehouseID = in.WarehouseID
	location.Name = strings.TrimSpace(in.Name)
	if err := s.repo.Locations.Update(ctx, ownerID, location); err != nil {
		return nil, repo.Classify(err, "location")
	}
	return s.GetLocation(ctx, ownerID, id)
}

func (s *Service) DeleteLocation(ctx context.Context, ownerID, id uuid.UUID) error {
	return repo.Classify(s.repo.Locations.Delete(ctx, ownerID, id), "location")
}

// LocationExists reports whether the location sits in one of the owner's warehouses.
func (s *Service) LocationExists(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	return s.repo.Locations.Exists(ctx, ownerID, id)
}

func (s *Service) requireWarehouse(ctx context.Context, ownerID, id uuid.UUID) error {
	exists, err := s.repo.Warehouses.Exists(ctx, ownerID, id)
	if err != nil {
		return repo.Classify(err, "warehouse")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
	}
	return nil
}

// Batches

func (s *Service) CreateBatch(ctx context.Context, ownerID uuid.UUID, in BatchInput) (*BatchView, error) {
	if err := s.requireProduct(ctx, ownerID, in.ProductID); err != nil {
		return nil, err
	}
	batch := &models.Batch{}
	applyBatch(batch, in)
	if err := s.repo.Batches.Create(ctx, batch); err != nil {
		return nil, repo.Classify(err, "batch")
	}
	view := batchView(*batch)
	return &view, nil
}

func (s *Service) GetBatch(ctx context.Context, ownerID, id uuid.UUID) (*BatchView, error) {
	batch, err := s.GetBatchModel(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	view := batchView(*batch)
	return &view, nil
}

func (s *Service) GetBatchModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Batch, error) {
	batch, err := s.repo.Batches.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "batch")
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, ownerID uuid.UUID, productID *uuid.UUID, params pagination.Params) (pagination.Page[BatchView], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[BatchView]{}, err
	}
	var filters []func(*gorm.DB) *gorm.DB
	if productID != nil {
		id := *productID
		filters = append(filters, func(db *gorm.DB) *gorm.DB { return db.Where("batches.product_id = ?", id) })
	}
	rows, err := s.repo.Batches.List(ctx, ownerID, cursor, params.Limit, filters...)
	if err != nil {
		return pagination.Page[BatchView]{}, repo.Classify(err, "batch")
	}
	page := pagination.Trim(rows, params.Limit, func(b models.Batch) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return pagination.Map(page, batchView), nil
}

func (s *Service) UpdateBatch(ctx context.Context, ownerID, id uuid.UUID, in BatchInput) (*BatchView, error) {
	batch, err := s.GetBatchModel(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, ownerID, in.ProductID); err != nil {
		return nil, err
	}
	applyBatch(batch, in)
	if err := s.repo.Batches.Update(ctx, ownerID, batch); err != nil {
		return nil, repo.Classify(err, "batch")
	}
	view := batchView(*batch)
	return &view, nil
}

func (s *Service) DeleteBatch(ctx context.Context, ownerID, id uuid.UUID) error {
	return repo.Classify(s.repo.Batches.Delete(ctx, ownerID, id), "batch")
}

func (s *Service) requireProduct(ctx context.Context, ownerID, id uuid.UUID) error {
	exists, err := s.products.ProductExists(ctx, ownerID, id)
	if err != nil {
		return repo.Classify(err, "product")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func applyBatch(batch *models.Batch, in BatchInput) {
	batch.ProductID = in.ProductID
	batch.BatchNumber = strings.TrimSpace(in.BatchNumber)
	batch.ExpiryDate = nil
	if in.ExpiryDate != nil {
		expiry := time.Time(*in.ExpiryDate)
		batch.ExpiryDate = &expiry
	}
}

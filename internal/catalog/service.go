package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Service manages the owner's products, categories, suppliers and kit components.
type Service struct {
	repo *Repository
}

func NewService(r *Repository) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &Service{repo: r}, nil
}

// Categories

func (s *Service) CreateCategory(ctx context.Context, ownerID uuid.UUID, in CategoryInput) (*models.Category, error) {
	if err := s.checkParent(ctx, ownerID, uuid.Nil, in.ParentID); err != nil {
		return nil, err
	}
	category := &models.Category{OwnerID: ownerID, Name: strings.TrimSpace(in.Name), ParentID: in.ParentID}
	if err := s.repo.Categories.Create(ctx, category); err != nil {
		return nil, classifyCategory(err)
	}
	return category, nil
}

func (s *Service) GetCategory(ctx context.Context, ownerID, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.Categories.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "category")
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Category], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Category]{}, err
	}
	rows, err := s.repo.Categories.List(ctx, ownerID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[models.Category]{}, repo.Classify(err, "category")
	}
	return pagination.Trim(rows, params.Limit, func(c models.Category) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}), nil
}

func (s *Service) UpdateCategory(ctx context.Context, ownerID, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	category, err := s.GetCategory(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, ownerID, id, in.ParentID); err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(in.Name)
	category.ParentID = in.ParentID
	if err := s.repo.Categories.Update(ctx, ownerID, category); err != nil {
		return nil, classifyCategory(err)
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, ownerID, id uuid.UUID) error {
	return repo.Classify(s.repo.Categories.Delete(ctx, ownerID, id), "category")
}

func (s *Service) checkParent(ctx context.Context, ownerID, self uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == self {
		return pkgerrors.New(pkgerrors.CodeValidation, "a category cannot be its own parent")
	}
	exists, err := s.repo.Categories.Exists(ctx, ownerID, *parentID)
	if err != nil {
		return repo.Classify(err, "category")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
	}
	return nil
}

func classifyCategory(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a category with this name already exists")
	}
	return repo.Classify(err, "category")
}

// Suppliers

func (s *Service) CreateSupplier(ctx context.Context, ownerID uuid.UUID, in SupplierInput) (*models.Supplier, error) {
	supplier := &models.Supplier{OwnerID: ownerID}
	applySupplier(supplier, in)
	if err := s.repo.Suppliers.Create(ctx, supplier); err != nil {
		return nil, repo.Classify(err, "supplier")
	}
	return supplier, nil
}

func (s *Service) GetSupplier(ctx context.Context, ownerID, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.repo.Suppliers.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "supplier")
	}
	return supplier, nil
}

func (s *Service) ListSuppliers(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Supplier], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Supplier]{}, err
	}
	rows, err := s.repo.Suppliers.List(ctx, ownerID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[models.Supplier]{}, repo.Classify(err, "supplier")
	}
	return pagination.Trim(rows, params.Limit, func(v models.Supplier) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	}), nil
}

func (s *Service) UpdateSupplier(ctx context.Context, ownerID, id uuid.UUID, in SupplierInput) (*models.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applySupplier(supplier, in)
	if err := s.repo.Suppliers.Update(ctx, ownerID, supplier); err != nil {
		return nil, repo.Classify(err, "supplier")
	}
	return supplier, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, ownerID, id uuid.UUID) error {
	return repo.Classify(s.repo.Suppliers.Delete(ctx, ownerID, id), "supplier")
}

// SupplierExists reports whether id is one of the owner's suppliers.
func (s *Service) SupplierExists(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	return s.repo.Suppliers.Exists(ctx, ownerID, id)
}

func applySupplier(supplier *models.Supplier, in SupplierInput) {
	supplier.Name = strings.TrimSpace(in.Name)
	supplier.ContactEmail = strings.TrimSpace(in.ContactEmail)
	supplier.Phone = strings.TrimSpace(in.Phone)
	supplier.LeadTimeDays = 7
	if in.LeadTimeDays != nil {
		supplier.LeadTimeDays = *in.LeadTimeDays
	}
}

// Products

func (s *Service) CreateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) (*ProductView, error) {
	if err := s.validateProduct(ctx, ownerID, in); err != nil {
		return nil, err
	}
	product := &models.Product{OwnerID: ownerID}
	in.apply(product)
	if err := s.repo.Products.Create(ctx, product); err != nil {
		return nil, classifyProduct(err)
	}
	return s.GetProduct(ctx, ownerID, product.ID)
}

func (s *Service) GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*ProductView, error) {
	view, err := s.repo.GetProductView(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "product")
	}
	return view, nil
}

// GetProductModel returns the stored product without the read-model columns.
func (s *Service) GetProductModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.Products.Get(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "product")
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, ownerID uuid.UUID, filter ProductFilter, params pagination.Params) (pagination.Page[ProductView], error) {
	return s.listProducts(ctx, ownerID, filter, params, false)
}

// LowStock lists products with any stock row at or below the product's threshold.
func (s *Service) LowStock(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[ProductView], error) {
	return s.listProducts(ctx, ownerID, ProductFilter{}, params, true)
}

func (s *Service) listProducts(ctx context.Context, ownerID uuid.UUID, filter ProductFilter, params pagination.Params, lowStock bool) (pagination.Page[ProductView], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[ProductView]{}, err
	}
	rows, err := s.repo.ListProductViews(ctx, ownerID, filter, cursor, params.Limit, lowStock)
	if err != nil {
		return pagination.Page[ProductView]{}, repo.Classify(err, "product")
	}
	return pagination.Trim(rows, params.Limit, func(p ProductView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *Service) UpdateProduct(ctx context.Context, ownerID, id uuid.UUID, in ProductInput) (*ProductView, error) {
	product, err := s.GetProductModel(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, ownerID, in); err != nil {
		return nil, err
	}
	in.apply(product)
	if err := s.repo.Products.Update(ctx, ownerID, product); err != nil {
		return nil, classifyProduct(err)
	}
	return s.GetProduct(ctx, ownerID, id)
}

func (s *Service) DeleteProduct(ctx context.Context, ownerID, id uuid.UUID) error {
	err := s.repo.Products.Delete(ctx, ownerID, id)
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by existing orders")
	}
	return repo.Classify(err, "product")
}

// ProductExists reports whether id is one of the owner's products.
func (s *Service) ProductExists(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	return s.repo.Products.Exists(ctx, ownerID, id)
}

func (s *Service) validateProduct(ctx context.Context, ownerID uuid.UUID, in ProductInput) error {
	if in.CostPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if in.ABCClassification != "" && !in.ABCClassification.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "abc_classification must be one of A, B, C")
	}
	if in.CategoryID != nil {
		exists, err := s.repo.Categories.Exists(ctx, ownerID, *in.CategoryID)
		if err != nil {
			return repo.Classify(err, "category")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
	}
	return nil
}

func classifyProduct(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this SKU already exists")
	}
	return repo.Classify(err, "product")
}

// Kit components

func (s *Service) ListComponents(ctx context.Context, ownerID, productID uuid.UUID) ([]ComponentView, error) {
	if _, err := s.GetProductModel(ctx, ownerID, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListComponents(ctx, ownerID, productID)
	if err != nil {
		return nil, repo.Classify(err, "component")
	}
	if rows == nil {
		rows = []ComponentView{}
	}
	return rows, nil
}

func (s *Service) AddComponent(ctx context.Context, ownerID, productID uuid.UUID, in ComponentInput) (*models.KitComponent, error) {
	if !in.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if in.ChildProductID == productID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a product cannot be a component of itself")
	}
	parent, err := s.GetProductModel(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetProductModel(ctx, ownerID, in.ChildProductID); err != nil {
		return nil, err
	}
	component := &models.KitComponent{
		ParentProductID: parent.ID,
		ChildProductID:  in.ChildProductID,
		Quantity:        in.Quantity,
	}
	if err := s.repo.CreateComponent(ctx, component); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "component already part of this kit")
		}
		return nil, repo.Classify(err, "component")
	}
	return component, nil
}

func (s *Service) RemoveComponent(ctx context.Context, ownerID, productID, componentID uuid.UUID) error {
	return repo.Classify(s.repo.DeleteComponent(ctx, ownerID, productID, componentID), "component")
}

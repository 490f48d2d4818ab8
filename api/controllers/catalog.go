package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// CatalogService is the product, category and supplier surface used by the HTTP layer.
type CatalogService interface {
	CreateCategory(ctx context.Context, ownerID uuid.UUID, in catalog.CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, ownerID, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Category], error)
	UpdateCategory(ctx context.Context, ownerID, id uuid.UUID, in catalog.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id uuid.UUID) error

	CreateSupplier(ctx context.Context, ownerID uuid.UUID, in catalog.SupplierInput) (*models.Supplier, error)
	GetSupplier(ctx context.Context, ownerID, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[models.Supplier], error)
	UpdateSupplier(ctx context.Context, ownerID, id uuid.UUID, in catalog.SupplierInput) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, ownerID, id uuid.UUID) error

	CreateProduct(ctx context.Context, ownerID uuid.UUID, in catalog.ProductInput) (*catalog.ProductView, error)
	GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ProductView, error)
	GetProductModel(ctx context.Context, ownerID, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID, filter catalog.ProductFilter, params pagination.Params) (pagination.Page[catalog.ProductView], error)
	LowStock(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (pagination.Page[catalog.ProductView], error)
	UpdateProduct(ctx context.Context, ownerID, id uuid.UUID, in catalog.ProductInput) (*catalog.ProductView, error)
	DeleteProduct(ctx context.Context, ownerID, id uuid.UUID) error

	ListComponents(ctx context.Context, ownerID, productID uuid.UUID) ([]catalog.ComponentView, error)
	AddComponent(ctx context.Context, ownerID, productID uuid.UUID, in catalog.ComponentInput) (*models.KitComponent, error)
	RemoveComponent(ctx context.Context, ownerID, productID, componentID uuid.UUID) error
}

const (
	categoryParam  = "categoryID"
	supplierParam  = "supplierID"
	productParam   = "productID"
	componentParam = "componentID"
)

func CategoryCreate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateCategory, logg)
}

func CategoryGet(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetCategory, categoryParam, logg)
}

func CategoryList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc.ListCategories, logg)
}

func CategoryUpdate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (catalog.CategoryInput, error) {
		category, err := svc.GetCategory(ctx, ownerID, id)
		if err != nil {
			return catalog.CategoryInput{}, err
		}
		return catalog.CategoryInputFrom(category), nil
	}
	return updateHandler(current, svc.UpdateCategory, categoryParam, logg)
}

func CategoryDelete(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteCategory, categoryParam, logg)
}

func SupplierCreate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateSupplier, logg)
}

func SupplierGet(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetSupplier, supplierParam, logg)
}

func SupplierList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc.ListSuppliers, logg)
}

func SupplierUpdate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (catalog.SupplierInput, error) {
		supplier, err := svc.GetSupplier(ctx, ownerID, id)
		if err != nil {
			return catalog.SupplierInput{}, err
		}
		return catalog.SupplierInputFrom(supplier), nil
	}
	return updateHandler(current, svc.UpdateSupplier, supplierParam, logg)
}

func SupplierDelete(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteSupplier, supplierParam, logg)
}

func ProductCreate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.CreateProduct, logg)
}

func ProductGet(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetProduct, productParam, logg)
}

// ProductList supports category_id and search filters.
func ProductList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
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
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := catalog.ProductFilter{
			CategoryID: categoryID,
			Search:     validators.ParseSearch(r, "search"),
		}
		page, err := svc.ListProducts(r.Context(), ownerID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductLowStock(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc.LowStock, logg)
}

func ProductUpdate(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (catalog.ProductInput, error) {
		product, err := svc.GetProductModel(ctx, ownerID, id)
		if err != nil {
			return catalog.ProductInput{}, err
		}
		return catalog.ProductInputFrom(product), nil
	}
	return updateHandler(current, svc.UpdateProduct, productParam, logg)
}

func ProductDelete(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.DeleteProduct, productParam, logg)
}

func ComponentList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.ListComponents, productParam, logg)
}

func ComponentAdd(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, productParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var in catalog.ComponentInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		component, err := svc.AddComponent(r.Context(), ownerID, productID, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, component)
	}
}

func ComponentRemove(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, productParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		componentID, err := validators.ParseUUIDParam(r, componentParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveComponent(r.Context(), ownerID, productID, componentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

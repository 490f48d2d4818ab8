package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const productColumns = "products.*, " +
	"COALESCE((SELECT SUM(stocks.quantity) FROM stocks WHERE stocks.product_id = products.id), 0) AS total_stock, " +
	"categories.name AS category_name"

// LowStockPredicate matches products with at least one stock row at or under the product threshold.
const LowStockPredicate = "EXISTS (SELECT 1 FROM stocks WHERE stocks.product_id = products.id AND stocks.quantity <= products.low_stock_threshold)"

// Repository holds the owner-scoped catalog tables.
type Repository struct {
	repo.Base
	Categories *repo.Scoped[models.Category]
	Suppliers  *repo.Scoped[models.Supplier]
	Products   *repo.Scoped[models.Product]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Base:       repo.NewBase(db),
		Categories: repo.NewScoped[models.Category](db, "categories", repo.OwnedBy("categories")),
		Suppliers:  repo.NewScoped[models.Supplier](db, "suppliers", repo.OwnedBy("suppliers")),
		Products:   repo.NewScoped[models.Product](db, "products", repo.OwnedBy("products")),
	}
}

func (r *Repository) productQuery(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Table("products").
		Select(productColumns).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Scopes(repo.OwnedBy("products")(ownerID))
}

// GetProductView loads one product with its stock total and category name.
func (r *Repository) GetProductView(ctx context.Context, ownerID, id uuid.UUID) (*ProductView, error) {
	var rows []productRow
	if err := r.productQuery(ctx, ownerID).Where("products.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	view := rows[0].view()
	return &view, nil
}

// ListProductViews returns one keyset page of products.
func (r *Repository) ListProductViews(ctx context.Context, ownerID uuid.UUID, filter ProductFilter, cursor *pagination.Cursor, limit int, lowStockOnly bool) ([]ProductView, error) {
	query := r.productQuery(ctx, ownerID)
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ?)", pattern, pattern)
	}
	if lowStockOnly {
		query = query.Where(LowStockPredicate)
	}

	var rows []productRow
	if err := query.Scopes(pagination.Keyset("products", cursor, limit)).Scan(&rows).Error; err != nil {
		return nil, err
	}
	views := make([]ProductView, len(rows))
	for i, row := range rows {
		views[i] = row.view()
	}
	return views, nil
}

// ListComponents returns the components of a kit owned by ownerID.
func (r *Repository) ListComponents(ctx context.Context, ownerID, parentID uuid.UUID) ([]ComponentView, error) {
	var rows []ComponentView
	err := r.DB(ctx).
		Table("product_kit_components").
		Select("product_kit_components.id, product_kit_components.parent_product_id, product_kit_components.child_product_id, "+
			"children.name AS child_name, children.sku AS child_sku, product_kit_components.quantity, product_kit_components.created_at").
		Joins("JOIN products children ON children.id = product_kit_components.child_product_id").
		Scopes(repo.ThroughProduct("product_kit_components", "parent_product_id")(ownerID)).
		Where("product_kit_components.parent_product_id = ?", parentID).
		Order("product_kit_components.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) CreateComponent(ctx context.Context, component *models.KitComponent) error {
	return r.DB(ctx).Omit(clause.Associations).Create(component).Error
}

// DeleteComponent removes a component of a kit owned by ownerID.
func (r *Repository) DeleteComponent(ctx context.Context, ownerID, parentID, componentID uuid.UUID) error {
	res := r.DB(ctx).
		Scopes(repo.ThroughProduct("product_kit_components", "parent_product_id")(ownerID)).
		Where("product_kit_components.id = ? AND product_kit_components.parent_product_id = ?", componentID, parentID).
		Delete(&models.KitComponent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

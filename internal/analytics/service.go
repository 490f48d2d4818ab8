package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
)

// DashboardStats is the owner's inventory summary.
type DashboardStats struct {
	TotalProducts      int64           `json:"total_products"`
	LowStockAlert      int64           `json:"low_stock_alert"`
	InventoryValuation decimal.Decimal `json:"inventory_valuation"`
	ItemsSoldPeriod    decimal.Decimal `json:"items_sold_period"`
}

// Service provides dashboard reports computed live from the owner's rows.
type Service interface {
	DashboardStats(ctx context.Context, ownerID uuid.UUID) (*DashboardStats, error)
}

type service struct {
	repo *Repository
}

func NewService(r *Repository) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: r}, nil
}

func (s *service) DashboardStats(ctx context.Context, ownerID uuid.UUID) (*DashboardStats, error) {
	var (
		stats DashboardStats
		err   error
	)
	if stats.TotalProducts, err = s.repo.CountProducts(ctx, ownerID); err != nil {
		return nil, repo.Classify(err, "product")
	}
	if stats.LowStockAlert, err = s.repo.CountLowStock(ctx, ownerID); err != nil {
		return nil, repo.Classify(err, "stock")
	}
	if stats.InventoryValuation, err = s.repo.Valuation(ctx, ownerID); err != nil {
		return nil, repo.Classify(err, "stock")
	}
	if stats.ItemsSoldPeriod, err = s.repo.ItemsSold(ctx, ownerID); err != nil {
		return nil, repo.Classify(err, "transaction")
	}
	return &stats, nil
}

package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

func seedProduct(t *testing.T, conn *gorm.DB, owner uuid.UUID, sku string, cost string, threshold int) *models.Product {
	t.Helper()
	p := &models.Product{
		OwnerID:           owner,
		Name:              sku,
		SKU:               sku,
		UOM:               "Each",
		CostPrice:         decimal.RequireFromString(cost),
		LowStockThreshold: threshold,
		ABCClass:          enums.ABCClassLow,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func seedStock(t *testing.T, conn *gorm.DB, productID uuid.UUID, qty int64) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Stock{ProductID: productID, LocationID: uuid.New(), Quantity: decimal.NewFromInt(qty)}).Error)
}

func seedTxn(t *testing.T, conn *gorm.DB, owner, productID uuid.UUID, txType enums.TransactionType, qty int64) {
	t.Helper()
	loc := uuid.New()
	require.NoError(t, conn.Create(&models.InventoryTransaction{
		OwnerID:          owner,
		TransactionType:  txType,
		ProductID:        productID,
		Quantity:         decimal.NewFromInt(qty),
		SourceLocationID: &loc,
	}).Error)
}

func TestDashboardStats(t *testing.T) {
	conn := dbtest.Open(t).DB()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	alice, bob := uuid.New(), uuid.New()

	bolts := seedProduct(t, conn, alice, "BOLT", "2.50", 10)
	nuts := seedProduct(t, conn, alice, "NUT", "1.00", 5)
	seedProduct(t, conn, alice, "WASHER", "0.25", 10)
	seedStock(t, conn, bolts.ID, 40)
	seedStock(t, conn, bolts.ID, 4)
	seedStock(t, conn, nuts.ID, 6)
	seedTxn(t, conn, alice, bolts.ID, enums.TransactionSalesOrder, 3)
	seedTxn(t, conn, alice, nuts.ID, enums.TransactionSalesOrder, 2)
	seedTxn(t, conn, alice, nuts.ID, enums.TransactionInternalTransfer, 9)

	foreign := seedProduct(t, conn, bob, "BOLT", "100.00", 1000)
	seedStock(t, conn, foreign.ID, 1)
	seedTxn(t, conn, bob, foreign.ID, enums.TransactionSalesOrder, 50)

	stats, err := svc.DashboardStats(context.Background(), alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.LowStockAlert)
	assert.True(t, stats.InventoryValuation.Equal(decimal.NewFromInt(116)), "valuation %s", stats.InventoryValuation)
	assert.True(t, stats.ItemsSoldPeriod.Equal(decimal.NewFromInt(5)), "sold %s", stats.ItemsSoldPeriod)
}

func TestDashboardStatsEmpty(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()))
	require.NoError(t, err)

	stats, err := svc.DashboardStats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalProducts)
	assert.Zero(t, stats.LowStockAlert)
	assert.True(t, stats.InventoryValuation.IsZero())
	assert.True(t, stats.ItemsSoldPeriod.IsZero())
}

package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type harness struct {
	client *db.Client
	svc    *Service
	reg    *prometheus.Registry
}

func newHarness(t *testing.T, allowNegative bool) harness {
	t.Helper()
	client := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		DB:                 client,
		Repo:               NewRepository(client.DB()),
		Outbox:             outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Metrics:            metrics.NewInventoryMetrics(reg),
		AllowNegativeStock: allowNegative,
		Now:                func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return harness{client: client, svc: svc, reg: reg}
}

func (h harness) product(t *testing.T, owner uuid.UUID, sku string) *models.Product {
	t.Helper()
	p := &models.Product{OwnerID: owner, Name: "Widget " + sku, SKU: sku, UOM: "Each", LowStockThreshold: 10, ABCClass: enums.ABCClassLow}
	require.NoError(t, h.client.DB().Create(p).Error)
	return p
}

func (h harness) location(t *testing.T, owner uuid.UUID, name string) *models.Location {
	t.Helper()
	w := &models.Warehouse{OwnerID: owner, Name: "Main " + name}
	require.NoError(t, h.client.DB().Create(w).Error)
	l := &models.Location{WarehouseID: w.ID, Name: name}
	require.NoError(t, h.client.DB().Create(l).Error)
	return l
}

func (h harness) balance(t *testing.T, productID, locationID uuid.UUID) decimal.Decimal {
	t.Helper()
	var stock models.Stock
	err := h.client.DB().Where("product_id = ? AND location_id = ?", productID, locationID).Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return stock.Quantity
}

func (h harness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.client.DB().Model(model).Count(&n).Error)
	return n
}

func (h harness) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDestinationOnlyRaisesDestination(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	src := h.location(t, owner, "A")
	dst := h.location(t, owner, "B")

	view, err := h.svc.RecordTransaction(context.Background(), owner, RecordInput{
		Type:                  enums.TransactionPurchaseReceive,
		ProductID:             p.ID,
		Quantity:              qty(5),
		DestinationLocationID: &dst.ID,
		Reference:             "  PO-1  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "PO-1", view.Reference)
	assert.Equal(t, "Widget P1", view.ProductName)
	assert.Equal(t, "Purchase Receive", view.TransactionTypeLabel)

	assert.True(t, h.balance(t, p.ID, dst.ID).Equal(qty(5)))
	assert.True(t, h.balance(t, p.ID, src.ID).IsZero())
	assert.EqualValues(t, 1, h.count(t, &models.Stock{}))
	assert.EqualValues(t, 1, h.events(t, enums.EventInventoryTransactionRecorded))
}

func TestTransferAppliesBothSides(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")
	b := h.location(t, owner, "B")
	ctx := context.Background()

	_, err := h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p.ID, Quantity: qty(20), DestinationLocationID: &a.ID})
	require.NoError(t, err)
	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionInternalTransfer, ProductID: p.ID, Quantity: qty(8), SourceLocationID: &a.ID, DestinationLocationID: &b.ID})
	require.NoError(t, err)

	assert.True(t, h.balance(t, p.ID, a.ID).Equal(qty(12)))
	assert.True(t, h.balance(t, p.ID, b.ID).Equal(qty(8)))
	assert.EqualValues(t, 2, h.count(t, &models.Stock{}))
	assert.EqualValues(t, 2, h.count(t, &models.InventoryTransaction{}))
}

func TestNegativeStockAllowedByDefaultPolicy(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")

	_, err := h.svc.RecordTransaction(context.Background(), owner, RecordInput{Type: enums.TransactionSalesOrder, ProductID: p.ID, Quantity: qty(3), SourceLocationID: &a.ID})
	require.NoError(t, err)
	assert.True(t, h.balance(t, p.ID, a.ID).Equal(qty(-3)))
}

func TestNegativeStockRejectedRollsBack(t *testing.T) {
	h := newHarness(t, false)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")
	b := h.location(t, owner, "B")
	ctx := context.Background()

	_, err := h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p.ID, Quantity: qty(2), DestinationLocationID: &a.ID})
	require.NoError(t, err)

	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionInternalTransfer, ProductID: p.ID, Quantity: qty(5), SourceLocationID: &a.ID, DestinationLocationID: &b.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, msgInsufficientStock, pkgerrors.As(err).Message())

	assert.True(t, h.balance(t, p.ID, a.ID).Equal(qty(2)))
	assert.True(t, h.balance(t, p.ID, b.ID).IsZero())
	assert.EqualValues(t, 1, h.count(t, &models.InventoryTransaction{}))
	assert.EqualValues(t, 1, h.events(t, enums.EventInventoryTransactionRecorded))

	// A negative adjustment posted to a destination draws the balance down too.
	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionAdjustment, ProductID: p.ID, Quantity: qty(-5), DestinationLocationID: &b.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, h.balance(t, p.ID, b.ID).IsZero())

	// Shrinking a positive balance without crossing zero is still allowed.
	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionAdjustment, ProductID: p.ID, Quantity: qty(-2), DestinationLocationID: &a.ID})
	require.NoError(t, err)
	assert.True(t, h.balance(t, p.ID, a.ID).IsZero())
	assert.EqualValues(t, 2, h.count(t, &models.InventoryTransaction{}))
}

func TestRecordValidatesInput(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}

	cases := map[string]RecordInput{
		"bad type":      {Type: "XFER", ProductID: p.ID, Quantity: qty(1), DestinationLocationID: &a.ID},
		"zero quantity": {Type: enums.TransactionAdjustment, ProductID: p.ID, Quantity: decimal.Zero, DestinationLocationID: &a.ID},
		"no locations":  {Type: enums.TransactionAdjustment, ProductID: p.ID, Quantity: qty(1)},
		"long ref":      {Type: enums.TransactionAdjustment, ProductID: p.ID, Quantity: qty(1), DestinationLocationID: &a.ID, Reference: string(long)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.RecordTransaction(context.Background(), owner, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.EqualValues(t, 0, h.count(t, &models.InventoryTransaction{}))
}

func TestRecordRejectsForeignReferences(t *testing.T) {
	h := newHarness(t, true)
	alice, bob := uuid.New(), uuid.New()
	mine := h.product(t, alice, "P1")
	theirs := h.product(t, bob, "P1")
	myLoc := h.location(t, alice, "A")
	theirLoc := h.location(t, bob, "B")
	ctx := context.Background()

	_, err := h.svc.RecordTransaction(ctx, alice, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: theirs.ID, Quantity: qty(1), DestinationLocationID: &myLoc.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.RecordTransaction(ctx, alice, RecordInput{Type: enums.TransactionInternalTransfer, ProductID: mine.ID, Quantity: qty(1), SourceLocationID: &myLoc.ID, DestinationLocationID: &theirLoc.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.EqualValues(t, 0, h.count(t, &models.Stock{}))
}

func TestRecordChecksBatchBelongsToProduct(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p1 := h.product(t, owner, "P1")
	p2 := h.product(t, owner, "P2")
	a := h.location(t, owner, "A")
	batch := &models.Batch{ProductID: p2.ID, BatchNumber: "LOT-9"}
	require.NoError(t, h.client.DB().Create(batch).Error)
	ctx := context.Background()

	_, err := h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p1.ID, Quantity: qty(1), DestinationLocationID: &a.ID, BatchID: &batch.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	view, err := h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p2.ID, Quantity: qty(4), DestinationLocationID: &a.ID, BatchID: &batch.ID})
	require.NoError(t, err)
	require.NotNil(t, view.BatchID)

	var stock models.Stock
	require.NoError(t, h.client.DB().Where("product_id = ?", p2.ID).Take(&stock).Error)
	require.NotNil(t, stock.BatchID)
	assert.Equal(t, batch.ID, *stock.BatchID)
}

func TestStockLowEmittedOnCrossing(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")
	ctx := context.Background()

	_, err := h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p.ID, Quantity: qty(15), DestinationLocationID: &a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, h.events(t, enums.EventStockLow))

	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionSalesOrder, ProductID: p.ID, Quantity: qty(6), SourceLocationID: &a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.events(t, enums.EventStockLow))

	_, err = h.svc.RecordTransaction(ctx, owner, RecordInput{Type: enums.TransactionSalesOrder, ProductID: p.ID, Quantity: qty(1), SourceLocationID: &a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.events(t, enums.EventStockLow))
}

func TestRecordTransactionTxRollsBackWithCaller(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	a := h.location(t, owner, "A")

	err := h.client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if _, err := h.svc.RecordTransactionTx(context.Background(), tx, owner, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p.ID, Quantity: qty(5), DestinationLocationID: &a.ID}); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInternal, "boom")
	})
	require.Error(t, err)
	assert.EqualValues(t, 0, h.count(t, &models.Stock{}))
	assert.EqualValues(t, 0, h.count(t, &models.InventoryTransaction{}))
	assert.EqualValues(t, 0, h.count(t, &models.OutboxEvent{}))
}

func TestListsAreTenantScoped(t *testing.T) {
	h := newHarness(t, true)
	alice, bob := uuid.New(), uuid.New()
	p := h.product(t, alice, "P1")
	a := h.location(t, alice, "A")
	ctx := context.Background()

	view, err := h.svc.RecordTransaction(ctx, alice, RecordInput{Type: enums.TransactionPurchaseReceive, ProductID: p.ID, Quantity: qty(5), DestinationLocationID: &a.ID})
	require.NoError(t, err)

	stock, err := h.svc.ListStock(ctx, alice, StockFilter{ProductID: &p.ID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, stock.Items, 1)
	assert.Equal(t, "A", stock.Items[0].LocationName)
	assert.Equal(t, "Main A", stock.Items[0].WarehouseName)

	_, err = h.svc.GetStock(ctx, bob, stock.Items[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	txns, err := h.svc.ListTransactions(ctx, alice, TransactionFilter{Type: enums.TransactionPurchaseReceive}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, txns.Items, 1)
	assert.Equal(t, "Purchase Receive", txns.Items[0].TransactionTypeLabel)

	empty, err := h.svc.ListTransactions(ctx, bob, TransactionFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = h.svc.GetTransaction(ctx, bob, view.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

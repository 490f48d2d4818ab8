package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/internal/ledger"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type harness struct {
	client *db.Client
	svc    Service
	reg    *prometheus.Registry
}

func newHarness(t *testing.T, allowNegative bool) harness {
	t.Helper()
	client := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(reg)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	now := func() time.Time { return fixedNow }

	led, err := ledger.NewService(ledger.ServiceParams{
		DB:                 client,
		Repo:               ledger.NewRepository(client.DB()),
		Outbox:             emitter,
		Metrics:            m,
		AllowNegativeStock: allowNegative,
		Now:                now,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    NewRepository(client.DB()),
		Ledger:  led,
		Outbox:  emitter,
		Metrics: m,
		Now:     now,
	})
	require.NoError(t, err)
	return harness{client: client, svc: svc, reg: reg}
}

func (h harness) product(t *testing.T, owner uuid.UUID, sku string) *models.Product {
	t.Helper()
	p := &models.Product{OwnerID: owner, Name: "Item " + sku, SKU: sku, UOM: "Each", LowStockThreshold: 0, ABCClass: enums.ABCClassLow}
	require.NoError(t, h.client.DB().Create(p).Error)
	return p
}

func (h harness) location(t *testing.T, owner uuid.UUID) *models.Location {
	t.Helper()
	w := &models.Warehouse{OwnerID: owner, Name: "Main"}
	require.NoError(t, h.client.DB().Create(w).Error)
	l := &models.Location{WarehouseID: w.ID, Name: "Shelf 1"}
	require.NoError(t, h.client.DB().Create(l).Error)
	return l
}

func (h harness) stock(t *testing.T, productID, locationID uuid.UUID, qty int64) {
	t.Helper()
	require.NoError(t, h.client.DB().Create(&models.Stock{ProductID: productID, LocationID: locationID, Quantity: decimal.NewFromInt(qty)}).Error)
}

func (h harness) balance(t *testing.T, productID, locationID uuid.UUID) decimal.Decimal {
	t.Helper()
	var rows []models.Stock
	require.NoError(t, h.client.DB().Where("product_id = ? AND location_id = ?", productID, locationID).Find(&rows).Error)
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Quantity)
	}
	return total
}

func (h harness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := h.client.DB().Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, message string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
	if message != "" {
		assert.Equal(t, message, typed.Message())
	}
}

func TestCompletePurchaseOrderReceivesStock(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p1 := h.product(t, owner, "P1")
	loc := h.location(t, owner)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{
		OrderType: enums.OrderTypePurchase,
		Items:     []ItemInput{{ProductID: p1.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDraft, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(50)))

	result, err := h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order processed and stock updated", result.Status)
	require.Len(t, result.Transactions, 1)

	txn := result.Transactions[0]
	assert.Equal(t, enums.TransactionPurchaseReceive, txn.TransactionType)
	require.NotNil(t, txn.DestinationLocationID)
	assert.Equal(t, loc.ID, *txn.DestinationLocationID)
	assert.Nil(t, txn.SourceLocationID)
	assert.Equal(t, fmt.Sprintf("Order #%s", order.ID), txn.Reference)
	assert.True(t, h.balance(t, p1.ID, loc.ID).Equal(decimal.NewFromInt(5)))

	got, err := h.svc.Get(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedLocationID)
	assert.Equal(t, loc.ID, *got.CompletedLocationID)
	require.NotNil(t, got.CompletedAt)

	assert.EqualValues(t, 1, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventOrderCompleted))
	assert.Equal(t, float64(1), completions(t, h.reg, "PO"))
}

func TestCompleteSalesOrderDrawsFromLocation(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	loc := h.location(t, owner)
	h.stock(t, p.ID, loc.ID, 8)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{
		OrderType:    enums.OrderTypeSales,
		CustomerName: "  Acme  ",
		Items:        []ItemInput{{ProductID: p.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("4.50")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", order.CustomerName)

	result, err := h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, enums.TransactionSalesOrder, result.Transactions[0].TransactionType)
	require.NotNil(t, result.Transactions[0].SourceLocationID)
	assert.True(t, h.balance(t, p.ID, loc.ID).Equal(decimal.NewFromInt(5)))
}

func TestCompleteTwiceConflictsWithoutNewTransactions(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	loc := h.location(t, owner)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{OrderType: enums.OrderTypePurchase, Items: []ItemInput{{ProductID: p.ID, Quantity: 2}}})
	require.NoError(t, err)
	_, err = h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	requireCode(t, err, pkgerrors.CodeConflict, "Order already completed")
	assert.EqualValues(t, 1, h.count(t, &models.InventoryTransaction{}, ""))
	assert.True(t, h.balance(t, p.ID, loc.ID).Equal(decimal.NewFromInt(2)))
}

func TestCompleteChecksLocation(t *testing.T) {
	h := newHarness(t, true)
	alice, bob := uuid.New(), uuid.New()
	p := h.product(t, alice, "P1")
	foreign := h.location(t, bob)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, alice, OrderInput{OrderType: enums.OrderTypePurchase, Items: []ItemInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, alice, order.ID, nil)
	requireCode(t, err, pkgerrors.CodeValidation, "Location ID required")

	_, err = h.svc.Complete(ctx, alice, order.ID, &foreign.ID)
	requireCode(t, err, pkgerrors.CodeForbidden, "Invalid location or access denied")

	_, err = h.svc.Complete(ctx, bob, order.ID, &foreign.ID)
	requireCode(t, err, pkgerrors.CodeNotFound, "")

	assert.EqualValues(t, 0, h.count(t, &models.InventoryTransaction{}, ""))
}

func TestCompleteRollsBackWhenAnItemFails(t *testing.T) {
	h := newHarness(t, false)
	owner := uuid.New()
	stocked := h.product(t, owner, "P1")
	empty := h.product(t, owner, "P2")
	loc := h.location(t, owner)
	h.stock(t, stocked.ID, loc.ID, 10)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{
		OrderType: enums.OrderTypeSales,
		Items: []ItemInput{
			{ProductID: stocked.ID, Quantity: 4},
			{ProductID: empty.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict, "insufficient stock at source location")

	assert.True(t, h.balance(t, stocked.ID, loc.ID).Equal(decimal.NewFromInt(10)))
	assert.EqualValues(t, 0, h.count(t, &models.InventoryTransaction{}, ""))
	assert.EqualValues(t, 0, h.count(t, &models.OutboxEvent{}, ""))

	got, err := h.svc.Get(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDraft, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestCreateRejectsForeignReferences(t *testing.T) {
	h := newHarness(t, true)
	alice, bob := uuid.New(), uuid.New()
	theirs := h.product(t, bob, "P1")
	supplier := &models.Supplier{OwnerID: bob, Name: "Bob's Supply", LeadTimeDays: 7}
	require.NoError(t, h.client.DB().Create(supplier).Error)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, alice, OrderInput{OrderType: enums.OrderTypePurchase, Items: []ItemInput{{ProductID: theirs.ID, Quantity: 1}}})
	requireCode(t, err, pkgerrors.CodeNotFound, "product not found")

	_, err = h.svc.Create(ctx, alice, OrderInput{OrderType: enums.OrderTypePurchase, SupplierID: &supplier.ID})
	requireCode(t, err, pkgerrors.CodeNotFound, "supplier not found")

	_, err = h.svc.Create(ctx, alice, OrderInput{OrderType: "XX"})
	requireCode(t, err, pkgerrors.CodeValidation, "")

	assert.EqualValues(t, 0, h.count(t, &models.Order{}, ""))
}

func TestUpdateReplacesItemsUntilCompleted(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p1 := h.product(t, owner, "P1")
	p2 := h.product(t, owner, "P2")
	loc := h.location(t, owner)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{OrderType: enums.OrderTypePurchase, Items: []ItemInput{{ProductID: p1.ID, Quantity: 1}}})
	require.NoError(t, err)

	in := InputFrom(*order)
	in.Items = []ItemInput{{ProductID: p2.ID, Quantity: 7, UnitPrice: decimal.NewFromInt(2)}}
	updated, err := h.svc.Update(ctx, owner, order.ID, in)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, p2.ID, updated.Items[0].ProductID)
	assert.Equal(t, "Item P2", updated.Items[0].ProductName)
	assert.True(t, updated.Items[0].TotalPrice.Equal(decimal.NewFromInt(14)))
	assert.EqualValues(t, 1, h.count(t, &models.OrderItem{}, ""))

	in.Items = nil
	in.CustomerName = "kept items"
	updated, err = h.svc.Update(ctx, owner, order.ID, in)
	require.NoError(t, err)
	assert.Len(t, updated.Items, 1)

	_, err = h.svc.Complete(ctx, owner, order.ID, &loc.ID)
	require.NoError(t, err)

	_, err = h.svc.Update(ctx, owner, order.ID, InputFrom(*updated))
	requireCode(t, err, pkgerrors.CodeStateConflict, "")

	err = h.svc.Delete(ctx, owner, order.ID)
	requireCode(t, err, pkgerrors.CodeConflict, "")
}

func TestDeleteRemovesDraftAndItems(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	p := h.product(t, owner, "P1")
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{OrderType: enums.OrderTypeSales, Items: []ItemInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	requireCode(t, h.svc.Delete(ctx, uuid.New(), order.ID), pkgerrors.CodeNotFound, "")
	require.NoError(t, h.svc.Delete(ctx, owner, order.ID))
	assert.EqualValues(t, 0, h.count(t, &models.OrderItem{}, ""))
	assert.EqualValues(t, 0, h.count(t, &models.Order{}, ""))
}

func TestConfirmAndCancel(t *testing.T) {
	h := newHarness(t, true)
	owner := uuid.New()
	loc := h.location(t, owner)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, owner, OrderInput{OrderType: enums.OrderTypePurchase})
	require.NoError(t, err)

	confirmed, err := h.svc.Confirm(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)

	_, err = h.svc.Confirm(ctx, owner, order.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict, "")

	cancelled, err := h.svc.Cancel(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	_, err = h.svc.Cancel(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventOrderCancelled))

	done, err := h.svc.Create(ctx, owner, OrderInput{OrderType: enums.OrderTypePurchase})
	require.NoError(t, err)
	_, err = h.svc.Complete(ctx, owner, done.ID, &loc.ID)
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, owner, done.ID)
	requireCode(t, err, pkgerrors.CodeConflict, "")
}

func TestListFiltersAndScopes(t *testing.T) {
	h := newHarness(t, true)
	alice, bob := uuid.New(), uuid.New()
	p := h.product(t, alice, "P1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.svc.Create(ctx, alice, OrderInput{OrderType: enums.OrderTypePurchase, Items: []ItemInput{{ProductID: p.ID, Quantity: i + 1}}})
		require.NoError(t, err)
	}
	_, err := h.svc.Create(ctx, alice, OrderInput{OrderType: enums.OrderTypeSales})
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, bob, OrderInput{OrderType: enums.OrderTypePurchase})
	require.NoError(t, err)

	page, err := h.svc.List(ctx, alice, Filter{OrderType: enums.OrderTypePurchase}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)
	for _, o := range page.Items {
		assert.Len(t, o.Items, 1)
		assert.Equal(t, "Item P1", o.Items[0].ProductName)
	}

	rest, err := h.svc.List(ctx, alice, Filter{OrderType: enums.OrderTypePurchase}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	_, err = h.svc.List(ctx, alice, Filter{Status: "SHIPPED"}, pagination.Params{})
	requireCode(t, err, pkgerrors.CodeValidation, "")
}

func completions(t *testing.T, reg *prometheus.Registry, orderType string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "stockroom_order_completions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == "order_type" && pair.GetValue() == orderType {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/ledger"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const (
	msgAlreadyCompleted = "Order already completed"
	msgLocationRequired = "Location ID required"
	msgInvalidLocation  = "Invalid location or access denied"
)

// Service defines order CRUD plus the state transitions.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, in OrderInput) (*OrderView, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error)
	List(ctx context.Context, ownerID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[OrderView], error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in OrderInput) (*OrderView, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Confirm(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error)
	Cancel(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error)
	Complete(ctx context.Context, ownerID, id uuid.UUID, locationID *uuid.UUID) (*CompleteResult, error)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	DB      txRunner
	Repo    Repository
	Ledger  ledgerRecorder
	Outbox  outbox.Emitter
	Metrics *metrics.InventoryMetrics
	Now     func() time.Time
}

type service struct {
	db      txRunner
	repo    Repository
	ledger  ledgerRecorder
	outbox  outbox.Emitter
	metrics *metrics.InventoryMetrics
	now     func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		ledger:  params.Ledger,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, in OrderInput) (*OrderView, error) {
	var view *OrderView
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if err := validateOrder(ctx, r, ownerID, in); err != nil {
			return err
		}
		order := &models.Order{
			OwnerID:      ownerID,
			OrderType:    in.OrderType,
			Status:       enums.OrderStatusDraft,
			SupplierID:   in.SupplierID,
			CustomerName: strings.TrimSpace(in.CustomerName),
			Items:        itemsFrom(in.Items),
		}
		if err := r.Create(ctx, order); err != nil {
			return repo.Classify(err, "order")
		}
		loaded, err := s.load(ctx, r, *order)
		if err != nil {
			return err
		}
		view = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error) {
	order, err := s.repo.Find(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "order")
	}
	return s.load(ctx, s.repo, *order)
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[OrderView], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return pagination.Page[OrderView]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if filter.OrderType != "" && !filter.OrderType.IsValid() {
		return pagination.Page[OrderView]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order_type")
	}
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderView]{}, err
	}
	rows, err := s.repo.List(ctx, ownerID, filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[OrderView]{}, repo.Classify(err, "order")
	}
	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	ids := make([]uuid.UUID, len(page.Items))
	for i, o := range page.Items {
		ids[i] = o.ID
	}
	items, err := s.repo.LoadItems(ctx, ids...)
	if err != nil {
		return pagination.Page[OrderView]{}, repo.Classify(err, "order item")
	}
	names, err := s.repo.ProductNames(ctx, productIDs(items))
	if err != nil {
		return pagination.Page[OrderView]{}, repo.Classify(err, "product")
	}
	return pagination.Map(page, func(o models.Order) OrderView {
		return viewOf(o, items[o.ID], names)
	}), nil
}

// Update rewrites the order and, when Items is non-nil, replaces its items.
// Completed orders are immutable.
func (s *service) Update(ctx context.Context, ownerID, id uuid.UUID, in OrderInput) (*OrderView, error) {
	var view *OrderView
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		order, err := r.FindForUpdate(ctx, ownerID, id)
		if err != nil {
			return repo.Classify(err, "order")
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be modified")
		}
		if err := validateOrder(ctx, r, ownerID, in); err != nil {
			return err
		}
		order.OrderType = in.OrderType
		order.SupplierID = in.SupplierID
		order.CustomerName = strings.TrimSpace(in.CustomerName)
		order.UpdatedAt = s.now()
		if err := r.Update(ctx, ownerID, order); err != nil {
			return repo.Classify(err, "order")
		}
		if in.Items != nil {
			if err := r.ReplaceItems(ctx, order.ID, itemsFrom(in.Items)); err != nil {
				return repo.Classify(err, "order item")
			}
		}
		loaded, err := s.load(ctx, r, *order)
		if err != nil {
			return err
		}
		view = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		order, err := r.FindForUpdate(ctx, ownerID, id)
		if err != nil {
			return repo.Classify(err, "order")
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeConflict, "completed orders cannot be deleted")
		}
		return repo.Classify(r.Delete(ctx, ownerID, id), "order")
	})
}

func (s *service) Confirm(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error) {
	return s.transition(ctx, ownerID, id, func(tx *gorm.DB, order *models.Order) error {
		if order.Status != enums.OrderStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be confirmed")
		}
		order.Status = enums.OrderStatusConfirmed
		return nil
	})
}

// Cancel is a no-op for orders that are already cancelled.
func (s *service) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*OrderView, error) {
	return s.transition(ctx, ownerID, id, func(tx *gorm.DB, order *models.Order) error {
		switch order.Status {
		case enums.OrderStatusCompleted:
			return pkgerrors.New(pkgerrors.CodeConflict, "completed orders cannot be cancelled")
		case enums.OrderStatusCancelled:
			return nil
		}
		order.Status = enums.OrderStatusCancelled
		now := s.now()
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OwnerID:     ownerID,
				OrderType:   string(order.OrderType),
				CancelledAt: now,
			},
			OccurredAt: now,
		})
	})
}

func (s *service) transition(ctx context.Context, ownerID, id uuid.UUID, apply func(tx *gorm.DB, order *models.Order) error) (*OrderView, error) {
	var view *OrderView
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		order, err := r.FindForUpdate(ctx, ownerID, id)
		if err != nil {
			return repo.Classify(err, "order")
		}
		before := order.Status
		if err := apply(tx, order); err != nil {
			return err
		}
		if order.Status != before {
			order.UpdatedAt = s.now()
			if err := r.Update(ctx, ownerID, order); err != nil {
				return repo.Classify(err, "order")
			}
		}
		loaded, err := s.load(ctx, r, *order)
		if err != nil {
			return err
		}
		view = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Complete posts one ledger transaction per item at locationID and marks the
// order completed. The order row stays locked for the whole unit, so a failure
// anywhere leaves stock untouched and concurrent completions serialize.
func (s *service) Complete(ctx context.Context, ownerID, id uuid.UUID, locationID *uuid.UUID) (*CompleteResult, error) {
	var result *CompleteResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		order, err := r.FindForUpdate(ctx, ownerID, id)
		if err != nil {
			return repo.Classify(err, "order")
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeConflict, msgAlreadyCompleted)
		}
		if locationID == nil || *locationID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, msgLocationRequired)
		}
		owned, err := r.LocationOwned(ctx, ownerID, *locationID)
		if err != nil {
			return repo.Classify(err, "location")
		}
		if !owned {
			return pkgerrors.New(pkgerrors.CodeForbidden, msgInvalidLocation)
		}

		itemsByOrder, err := r.LoadItems(ctx, order.ID)
		if err != nil {
			return repo.Classify(err, "order item")
		}
		items := itemsByOrder[order.ID]
		txType := order.OrderType.LedgerTransactionType()
		reference := fmt.Sprintf("Order #%s", order.ID)
		transactions := make([]ledger.TransactionView, 0, len(items))
		for _, item := range items {
			in := ledger.RecordInput{
				Type:      txType,
				ProductID: item.ProductID,
				Quantity:  decimal.NewFromInt(int64(item.Quantity)),
				Reference: reference,
			}
			if order.OrderType == enums.OrderTypePurchase {
				in.DestinationLocationID = locationID
			} else {
				in.SourceLocationID = locationID
			}
			view, err := s.ledger.RecordTransactionTx(ctx, tx, ownerID, in)
			if err != nil {
				return err
			}
			transactions = append(transactions, *view)
		}

		now := s.now()
		order.Status = enums.OrderStatusCompleted
		order.CompletedLocationID = locationID
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := r.Update(ctx, ownerID, order); err != nil {
			return repo.Classify(err, "order")
		}

		txIDs := make([]uuid.UUID, len(transactions))
		for i, t := range transactions {
			txIDs[i] = t.ID
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID},
			Data: payloads.OrderCompletedEvent{
				OrderID:        order.ID,
				OwnerID:        ownerID,
				OrderType:      string(order.OrderType),
				LocationID:     *locationID,
				TransactionIDs: txIDs,
				CompletedAt:    now,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}

		names, err := r.ProductNames(ctx, productIDs(itemsByOrder))
		if err != nil {
			return repo.Classify(err, "product")
		}
		result = &CompleteResult{
			Status:       msgOrderProcessed,
			Order:        viewOf(*order, items, names),
			Transactions: transactions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Observe(result.Transactions...)
	s.metrics.IncOrderCompleted(string(result.Order.OrderType))
	return result, nil
}

func (s *service) load(ctx context.Context, r Repository, order models.Order) (*OrderView, error) {
	items, err := r.LoadItems(ctx, order.ID)
	if err != nil {
		return nil, repo.Classify(err, "order item")
	}
	names, err := r.ProductNames(ctx, productIDs(items))
	if err != nil {
		return nil, repo.Classify(err, "product")
	}
	view := viewOf(order, items[order.ID], names)
	return &view, nil
}

func validateOrder(ctx context.Context, r Repository, ownerID uuid.UUID, in OrderInput) error {
	if !in.OrderType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order_type must be PO or SO")
	}
	if in.SupplierID != nil {
		owned, err := r.SupplierOwned(ctx, ownerID, *in.SupplierID)
		if err != nil {
			return repo.Classify(err, "supplier")
		}
		if !owned {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
	}
	if len(in.Items) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(in.Items))
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item unit_price cannot be negative")
		}
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	count, err := r.CountOwnedProducts(ctx, ownerID, ids)
	if err != nil {
		return repo.Classify(err, "product")
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func itemsFrom(in []ItemInput) []models.OrderItem {
	items := make([]models.OrderItem, len(in))
	for i, item := range in {
		items[i] = models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return items
}

func productIDs(items map[uuid.UUID][]models.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, list := range items {
		for _, item := range list {
			if _, ok := seen[item.ProductID]; ok {
				continue
			}
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}


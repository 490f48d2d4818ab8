package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const (
	maxReferenceLength   = 100
	msgInsufficientStock = "insufficient stock at source location"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the ledger dependencies.
type ServiceParams struct {
	DB                 txRunner
	Repo               Repository
	Outbox             outbox.Emitter
	Metrics            *metrics.InventoryMetrics
	Logger             *logger.Logger
	AllowNegativeStock bool
	Now                func() time.Time
}

// Service is the only writer of stock balances. Every movement is recorded as
// an immutable transaction and applied to the affected stock rows in the same
// database transaction.
type Service struct {
	db            txRunner
	repo          Repository
	outbox        outbox.Emitter
	metrics       *metrics.InventoryMetrics
	logg          *logger.Logger
	allowNegative bool
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		db:            params.DB,
		repo:          params.Repo,
		outbox:        params.Outbox,
		metrics:       params.Metrics,
		logg:          params.Logger,
		allowNegative: params.AllowNegativeStock,
		now:           now,
	}, nil
}

// RecordTransaction records one movement in its own database transaction.
func (s *Service) RecordTransaction(ctx context.Context, ownerID uuid.UUID, in RecordInput) (*TransactionView, error) {
	var view *TransactionView
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		recorded, err := s.RecordTransactionTx(ctx, tx, ownerID, in)
		if err != nil {
			return err
		}
		view = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Observe(*view)
	return view, nil
}

// RecordTransactionTx records one movement inside the caller's transaction.
// Callers own the commit and should call Observe once it succeeds.
func (s *Service) RecordTransactionTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in RecordInput) (*TransactionView, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	in.Reference = strings.TrimSpace(in.Reference)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	r := s.repo.WithTx(tx)
	product, err := r.FindProduct(ctx, ownerID, in.ProductID)
	if err != nil {
		return nil, repo.Classify(err, "product")
	}
	if err := s.checkLocations(ctx, r, ownerID, in); err != nil {
		return nil, err
	}
	if in.BatchID != nil {
		if _, err := r.FindBatch(ctx, product.ID, *in.BatchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch does not belong to product")
			}
			return nil, repo.Classify(err, "batch")
		}
	}

	before, err := r.TotalStock(ctx, product.ID)
	if err != nil {
		return nil, repo.Classify(err, "stock")
	}

	now := s.now()
	if in.SourceLocationID != nil {
		if err := s.adjust(ctx, r, product.ID, *in.SourceLocationID, in.BatchID, in.Quantity.Neg(), now); err != nil {
			return nil, err
		}
	}
	if in.DestinationLocationID != nil {
		if err := s.adjust(ctx, r, product.ID, *in.DestinationLocationID, in.BatchID, in.Quantity, now); err != nil {
			return nil, err
		}
	}

	txn := &models.InventoryTransaction{
		OwnerID:               ownerID,
		TransactionType:       in.Type,
		ProductID:             product.ID,
		Quantity:              in.Quantity,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		BatchID:               in.BatchID,
		Reference:             in.Reference,
	}
	if err := r.CreateTransaction(ctx, txn); err != nil {
		return nil, repo.Classify(err, "transaction")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryTransactionRecorded,
		AggregateType: enums.AggregateInventoryTransaction,
		AggregateID:   txn.ID,
		Actor:         &outbox.ActorRef{UserID: ownerID},
		Data: payloads.TransactionRecordedEvent{
			TransactionID:         txn.ID,
			OwnerID:               ownerID,
			TransactionType:       string(txn.TransactionType),
			ProductID:             txn.ProductID,
			Quantity:              txn.Quantity,
			SourceLocationID:      txn.SourceLocationID,
			DestinationLocationID: txn.DestinationLocationID,
			BatchID:               txn.BatchID,
			Reference:             txn.Reference,
		},
		OccurredAt: now,
	}); err != nil {
		return nil, err
	}

	after, err := r.TotalStock(ctx, product.ID)
	if err != nil {
		return nil, repo.Classify(err, "stock")
	}
	threshold := decimal.NewFromInt(int64(product.LowStockThreshold))
	if before.GreaterThan(threshold) && after.LessThanOrEqual(threshold) {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockLow,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID},
			Data: payloads.StockLowEvent{
				ProductID:  product.ID,
				OwnerID:    ownerID,
				SKU:        product.SKU,
				TotalStock: after,
				Threshold:  product.LowStockThreshold,
			},
			OccurredAt: now,
		}); err != nil {
			return nil, err
		}
	}

	view := ViewOf(*txn, product.Name)
	return &view, nil
}

// Observe records movement metrics for committed transactions.
func (s *Service) Observe(views ...TransactionView) {
	for _, v := range views {
		s.metrics.ObserveTransaction(string(v.TransactionType), v.Quantity.InexactFloat64())
	}
}

func validateInput(in RecordInput) error {
	switch {
	case !in.Type.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	case in.ProductID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	case in.Quantity.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	case in.SourceLocationID == nil && in.DestinationLocationID == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "source_location_id or destination_location_id is required")
	case len(in.Reference) > maxReferenceLength:
		return pkgerrors.New(pkgerrors.CodeValidation, "reference must be at most 100 characters")
	}
	return nil
}

func (s *Service) checkLocations(ctx context.Context, r Repository, ownerID uuid.UUID, in RecordInput) error {
	ids := make([]uuid.UUID, 0, 2)
	if in.SourceLocationID != nil {
		ids = append(ids, *in.SourceLocationID)
	}
	if in.DestinationLocationID != nil && (in.SourceLocationID == nil || *in.DestinationLocationID != *in.SourceLocationID) {
		ids = append(ids, *in.DestinationLocationID)
	}
	count, err := r.CountOwnedLocations(ctx, ownerID, ids)
	if err != nil {
		return repo.Classify(err, "location")
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return nil
}

func (s *Service) adjust(ctx context.Context, r Repository, productID, locationID uuid.UUID, batchID *uuid.UUID, delta decimal.Decimal, at time.Time) error {
	stock, err := lockOrCreate(ctx, r, productID, locationID, batchID)
	if err != nil {
		return repo.Classify(err, "stock")
	}
	next := stock.Quantity.Add(delta)
	// Any decrease is checked, whichever side of the movement it lands on:
	// a negative quantity posted to a destination draws stock down too.
	if delta.IsNegative() && next.IsNegative() {
		if !s.allowNegative {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgInsufficientStock).WithDetails(map[string]any{
				"location_id": locationID,
				"available":   stock.Quantity,
				"requested":   delta.Neg(),
			})
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"product_id":  productID.String(),
				"location_id": locationID.String(),
				"quantity":    next.String(),
			})
			s.logg.Warn(logCtx, "stock below zero")
		}
	}
	if err := r.SetStockQuantity(ctx, stock.ID, next, at); err != nil {
		return repo.Classify(err, "stock")
	}
	return nil
}

// lockOrCreate returns the locked balance row, creating it on first use. When
// a concurrent writer inserts the row first, the locked read is retried once.
func lockOrCreate(ctx context.Context, r Repository, productID, locationID uuid.UUID, batchID *uuid.UUID) (*models.Stock, error) {
	stock, err := r.LockStock(ctx, productID, locationID, batchID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stock = &models.Stock{
		ProductID:  productID,
		LocationID: locationID,
		BatchID:    batchID,
		Quantity:   decimal.Zero,
	}
	inserted, err := r.InsertStockIfAbsent(ctx, stock)
	if err != nil {
		return nil, err
	}
	if inserted {
		return stock, nil
	}
	return r.LockStock(ctx, productID, locationID, batchID)
}

func (s *Service) GetStock(ctx context.Context, ownerID, id uuid.UUID) (*StockView, error) {
	view, err := s.repo.GetStock(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "stock")
	}
	return view, nil
}

func (s *Service) ListStock(ctx context.Context, ownerID uuid.UUID, filter StockFilter, params pagination.Params) (pagination.Page[StockView], error) {
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[StockView]{}, err
	}
	rows, err := s.repo.ListStock(ctx, ownerID, filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[StockView]{}, repo.Classify(err, "stock")
	}
	return pagination.Trim(rows, params.Limit, func(v StockView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	}), nil
}

func (s *Service) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*TransactionView, error) {
	view, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, repo.Classify(err, "transaction")
	}
	return view, nil
}

func (s *Service) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter, params pagination.Params) (pagination.Page[TransactionView], error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return pagination.Page[TransactionView]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	cursor, err := repo.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[TransactionView]{}, err
	}
	rows, err := s.repo.ListTransactions(ctx, ownerID, filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[TransactionView]{}, repo.Classify(err, "transaction")
	}
	return pagination.Trim(rows, params.Limit, func(v TransactionView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	}), nil
}

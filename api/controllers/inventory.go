package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/ledger"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// LedgerService records stock movements and serves stock and transaction reads.
type LedgerService interface {
	RecordTransaction(ctx context.Context, ownerID uuid.UUID, in ledger.RecordInput) (*ledger.TransactionView, error)
	GetStock(ctx context.Context, ownerID, id uuid.UUID) (*ledger.StockView, error)
	ListStock(ctx context.Context, ownerID uuid.UUID, filter ledger.StockFilter, params pagination.Params) (pagination.Page[ledger.StockView], error)
	GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*ledger.TransactionView, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter ledger.TransactionFilter, params pagination.Params) (pagination.Page[ledger.TransactionView], error)
}

const (
	stockParam       = "stockID"
	transactionParam = "transactionID"
)

func StockGet(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetStock, stockParam, logg)
}

// StockList filters by product_id and location_id.
func StockList(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
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
		var filter ledger.StockFilter
		if filter.ProductID, err = validators.ParseQueryUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.LocationID, err = validators.ParseQueryUUID(r, "location_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListStock(r.Context(), ownerID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// TransactionCreate is the manual entry point into the stock ledger.
func TransactionCreate(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.RecordTransaction, logg)
}

func TransactionGet(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.GetTransaction, transactionParam, logg)
}

// TransactionList filters by product_id and type.
func TransactionList(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
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
		filter := ledger.TransactionFilter{
			Type: enums.TransactionType(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))),
		}
		if filter.ProductID, err = validators.ParseQueryUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListTransactions(r.Context(), ownerID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

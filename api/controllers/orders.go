package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

const orderParam = "orderID"

type completeOrderRequest struct {
	LocationID *uuid.UUID `json:"location_id"`
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return createHandler(svc.Create, logg)
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return getHandler(svc.Get, orderParam, logg)
}

// OrderList filters by status and order_type.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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
		query := r.URL.Query()
		filter := orders.Filter{
			Status:    enums.OrderStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
			OrderType: enums.OrderType(strings.ToUpper(strings.TrimSpace(query.Get("order_type")))),
		}
		page, err := svc.List(r.Context(), ownerID, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderUpdate replaces the order header. Items are replaced only when the
// body carries an items array.
func OrderUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	current := func(ctx context.Context, ownerID, id uuid.UUID) (orders.OrderInput, error) {
		view, err := svc.Get(ctx, ownerID, id)
		if err != nil {
			return orders.OrderInput{}, err
		}
		in := orders.InputFrom(*view)
		in.Items = nil
		return in, nil
	}
	return updateHandler(current, svc.Update, orderParam, logg)
}

func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(svc.Delete, orderParam, logg)
}

func OrderConfirm(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc.Confirm, logg)
}

func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc.Cancel, logg)
}

// OrderComplete posts every line to the ledger at the given location.
func OrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := ownerFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, orderParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// an empty body falls through to the service's location check
		var body completeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Complete(r.Context(), ownerID, orderID, body.LocationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func orderAction(action func(ctx context.Context, ownerID, id uuid.UUID) (*orders.OrderView, error), logg *logger.Logger) http.HandlerFunc {
	return getHandler(action, orderParam, logg)
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// AdminListOrders returns a filtered, cursor-paginated page of orders.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor"),
		}
		filters := orders.ListFilters{
			Status:    validators.QueryString(r, "status"),
			PaymentID: validators.QueryString(r, "payment_id"),
		}
		if filters.CreatedAfter, err = parseQueryTime(r, "created_after"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.CreatedBefore, err = parseQueryTime(r, "created_before"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminGetOrder returns one order with its decoded line items.
func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid"))
			return
		}

		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type fulfillRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

// AdminFulfillOrder re-runs fulfillment for one gateway payment. Used when a
// webhook delivery never arrived and the admin does not want to wait for the
// reconcile job.
func AdminFulfillOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		var payload fulfillRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmPayment(r.Context(), auth.UserID.String(), payload.PaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminBackfillOrderFees pulls the current fee breakdown from the gateway and
// stores it on the order. Safe to call repeatedly.
func AdminBackfillOrderFees(svc orders.Service, gateway paymentFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		auth, _ := middleware.AuthFromContext(r.Context())

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid"))
			return
		}

		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := gateway.GetPayment(r.Context(), detail.Order.PaymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var update orders.FeeUpdate
		if fee, ok := payment.FeeAmount(); ok {
			update.FeeAmount = &fee
		}
		if net, ok := payment.NetReceivedAmount(); ok {
			update.NetReceivedAmount = &net
		}
		if update.FeeAmount == nil && update.NetReceivedAmount == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodePaymentState, "gateway has not settled fees for this payment yet"))
			return
		}

		if err := svc.RecordFees(r.Context(), auth.UserID.String(), orderID, update); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refreshed, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, refreshed)
	}
}

func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := validators.QueryString(r, key)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an RFC 3339 timestamp")
	}
	return &ts, nil
}

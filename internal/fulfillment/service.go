// Package fulfillment turns an approved gateway payment into at most one
// order: stock decrements, the order row, and the audit entry commit in a
// single transaction, and the unique payment id index is the authoritative
// guard against double fulfillment.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result reports what one confirmation attempt did.
type Result struct {
	Order *models.Order
	Items []orders.OrderItem
	// AlreadyFulfilled is true when an order for this payment existed before
	// the attempt (or a concurrent attempt won the insert race). No stock
	// moved in that case.
	AlreadyFulfilled bool
}

// Service processes confirmed gateway payments.
type Service interface {
	ProcessConfirmedPayment(ctx context.Context, actorID string, payment *mercadopago.Payment) (*Result, error)
}

type service struct {
	orders    orders.Repository
	inventory inventory.Repository
	activity  activity.Recorder
	tx        txRunner
	logg      *logger.Logger
	metrics   *metrics.FulfillmentMetrics
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Orders    orders.Repository
	Inventory inventory.Repository
	Activity  activity.Recorder
	Tx        txRunner
	Logger    *logger.Logger
	Metrics   *metrics.FulfillmentMetrics
}

// NewService builds the fulfillment engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:    params.Orders,
		inventory: params.Inventory,
		activity:  params.Activity,
		tx:        params.Tx,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

func (s *service) ProcessConfirmedPayment(ctx context.Context, actorID string, payment *mercadopago.Payment) (*Result, error) {
	if payment == nil || payment.PaymentID() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment with id required")
	}
	paymentID := payment.PaymentID()
	ctx = s.logg.WithPaymentID(ctx, paymentID)

	status := enums.GatewayPaymentStatus(payment.Status)
	if !status.IsApproved() {
		s.metrics.IncPayment("rejected")
		return nil, pkgerrors.New(pkgerrors.CodePaymentState, "payment is not approved").
			WithDetails(map[string]string{"status": payment.Status})
	}

	gatewayItems := payment.Items()
	if len(gatewayItems) == 0 {
		s.metrics.IncPayment("no_items")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment carries no line items")
	}

	// Fast path: an order already exists. The unique index below remains the
	// authoritative guard; this read just avoids burning a transaction on
	// webhook retries.
	if existing, err := s.orders.FindByPaymentID(ctx, paymentID); err == nil {
		s.metrics.IncPayment("duplicate")
		return s.duplicateResult(existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing order")
	}

	mapped := MapGatewayItems(gatewayItems)
	for _, item := range mapped {
		if item.TitleFallback {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"card_id": item.CardID,
				"title":   item.Title,
			}), "line item missing variant tag, resolved version from title")
		}
	}

	var order *models.Order
	var lineItems []orders.OrderItem

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		inventoryRepo := s.inventory.WithTx(tx)

		lineItems = make([]orders.OrderItem, 0, len(mapped))
		allFulfilled := true
		for _, item := range mapped {
			outcome, err := s.fulfillItem(ctx, inventoryRepo, item)
			if err != nil {
				return err
			}
			if !outcome.Fulfilled() {
				allFulfilled = false
			}
			lineItems = append(lineItems, orders.OrderItem{
				CardID:    item.CardID,
				Version:   item.Version,
				Title:     item.Title,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Outcome:   outcome,
			})
		}

		orderStatus := enums.OrderStatusFulfilled
		if !allFulfilled {
			orderStatus = enums.OrderStatusPartial
		}

		encoded, err := orders.EncodeItems(lineItems)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
		}

		order = &models.Order{
			PaymentID:         paymentID,
			ExternalReference: payment.ExternalReference,
			Items:             encoded,
			Status:            orderStatus,
			TotalAmount:       payment.TransactionAmount,
		}
		if email := payment.PayerEmail(); email != "" {
			order.CustomerEmail = &email
		}
		if fee, ok := payment.FeeAmount(); ok {
			order.MPFeeAmount = &fee
		}
		if net, ok := payment.NetReceivedAmount(); ok {
			order.NetReceivedAmount = &net
		}

		if err := ordersRepo.Insert(ctx, order); err != nil {
			return err
		}

		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionOrderCreated,
			EntityType: "order",
			EntityID:   order.ID.String(),
			Details: map[string]any{
				"payment_id": paymentID,
				"status":     orderStatus,
				"item_count": len(lineItems),
			},
		})
	})
	if err != nil {
		// A concurrent confirmation won the insert race. The rollback undid
		// this attempt's decrements; the winner's order is the truth.
		if errors.Is(err, orders.ErrDuplicatePayment) {
			s.metrics.IncPayment("duplicate")
			existing, ferr := s.orders.FindByPaymentID(ctx, paymentID)
			if ferr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "load winning order")
			}
			return s.duplicateResult(existing)
		}
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill payment")
	}

	for _, item := range lineItems {
		s.metrics.IncItem(item.Outcome.String())
	}
	s.metrics.IncPayment(order.Status.String())

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "payment fulfilled")

	return &Result{Order: order, Items: lineItems}, nil
}

// fulfillItem attempts one conditional decrement and classifies the result.
// Business failures (unknown item, missing record, insufficient stock) are
// data and never abort the order; infrastructure errors do, so the whole
// attempt rolls back and can be retried.
func (s *service) fulfillItem(ctx context.Context, repo inventory.Repository, item MappedItem) (enums.ItemOutcome, error) {
	if !item.Known || item.Quantity <= 0 {
		return enums.ItemOutcomeSkippedUnknown, nil
	}

	ok, err := repo.TryDecrement(ctx, item.CardID, item.Version, item.Quantity)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if ok {
		return enums.ItemOutcomeFulfilled, nil
	}

	if _, err := repo.Find(ctx, item.CardID, item.Version); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.ItemOutcomeNotFound, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect inventory record")
	}
	return enums.ItemOutcomeInsufficientStock, nil
}

func (s *service) duplicateResult(existing *models.Order) (*Result, error) {
	items, err := orders.DecodeItems(existing.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode existing order items")
	}
	return &Result{Order: existing, Items: items, AlreadyFulfilled: true}, nil
}

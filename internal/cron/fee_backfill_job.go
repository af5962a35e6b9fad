package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
)

const defaultFeeBackfillLimit = 50

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type feeOrderStore interface {
	ListMissingFees(ctx context.Context, limit int) ([]models.Order, error)
}

type feeRecorder interface {
	RecordFees(ctx context.Context, actorID string, orderID uuid.UUID, update orders.FeeUpdate) error
}

// FeeBackfillJobParams configure the fee backfill job.
type FeeBackfillJobParams struct {
	Logger  *logger.Logger
	Orders  feeOrderStore
	Fees    feeRecorder
	Gateway paymentFetcher
	Limit   int
}

// NewFeeBackfillJob builds the job that fills in gateway fee and net-amount
// fields for orders whose payment object did not carry them at fulfillment
// time. The gateway settles fees asynchronously, so a later fetch usually has
// them.
func NewFeeBackfillJob(params FeeBackfillJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee recorder required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultFeeBackfillLimit
	}
	return &feeBackfillJob{
		logg:    params.Logger,
		orders:  params.Orders,
		fees:    params.Fees,
		gateway: params.Gateway,
		limit:   limit,
	}, nil
}

type feeBackfillJob struct {
	logg    *logger.Logger
	orders  feeOrderStore
	fees    feeRecorder
	gateway paymentFetcher
	limit   int
}

func (j *feeBackfillJob) Name() string { return "fee-backfill" }

func (j *feeBackfillJob) Run(ctx context.Context) error {
	candidates, err := j.orders.ListMissingFees(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list orders missing fees: %w", err)
	}

	var errs error
	filled := 0
	for i := range candidates {
		order := &candidates[i]
		updated, err := j.backfillOrder(ctx, order)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("backfill order %s: %w", order.ID, err))
			continue
		}
		if updated {
			filled++
		}
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(candidates),
		"filled":     filled,
	})
	j.logg.Info(reportCtx, "fee backfill complete")
	return errs
}

func (j *feeBackfillJob) backfillOrder(ctx context.Context, order *models.Order) (bool, error) {
	payment, err := j.gateway.GetPayment(ctx, order.PaymentID)
	if err != nil {
		return false, err
	}

	update := orders.FeeUpdate{}
	if fee, ok := payment.FeeAmount(); ok {
		update.FeeAmount = &fee
	}
	if net, ok := payment.NetReceivedAmount(); ok {
		update.NetReceivedAmount = &net
	}
	if update.FeeAmount == nil && update.NetReceivedAmount == nil {
		// fee not settled yet, picked up on a later run
		logCtx := j.logg.WithPaymentID(ctx, order.PaymentID)
		j.logg.Info(logCtx, "gateway has no fee data yet")
		return false, nil
	}
	if err := j.fees.RecordFees(ctx, "", order.ID, update); err != nil {
		return false, err
	}
	return true, nil
}

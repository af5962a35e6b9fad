package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

const (
	defaultReconcileWindow = 72 * time.Hour
	defaultReconcileLimit  = 50
)

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, actorID, paymentID string) (*payments.NotificationResult, error)
}

type refLister interface {
	ListApprovedWithoutOrder(ctx context.Context, since time.Time, limit int) ([]models.PaymentRef, error)
}

// ReconcileJobParams configure the order reconcile sweep.
type ReconcileJobParams struct {
	Logger   *logger.Logger
	Refs     refLister
	Payments paymentConfirmer
	Window   time.Duration
	Limit    int
	Now      func() time.Time
}

// NewReconcileJob builds the sweep that re-runs fulfillment for approved
// payments that never produced an order. Webhook loss, crashes between the
// gateway fetch and the commit, and provider retries that all failed land
// here.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Refs == nil {
		return nil, fmt.Errorf("payment ref repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	window := params.Window
	if window <= 0 {
		window = defaultReconcileWindow
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &reconcileJob{
		logg:     params.Logger,
		refs:     params.Refs,
		payments: params.Payments,
		window:   window,
		limit:    limit,
		now:      now,
	}, nil
}

type reconcileJob struct {
	logg     *logger.Logger
	refs     refLister
	payments paymentConfirmer
	window   time.Duration
	limit    int
	now      func() time.Time
}

func (j *reconcileJob) Name() string { return "order-reconcile" }

func (j *reconcileJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.window)
	refs, err := j.refs.ListApprovedWithoutOrder(ctx, since, j.limit)
	if err != nil {
		return fmt.Errorf("list unfulfilled approved payments: %w", err)
	}

	var errs error
	repaired := 0
	for i := range refs {
		paymentID := refs[i].PaymentID
		result, err := j.payments.ConfirmPayment(ctx, "", paymentID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reconcile payment %s: %w", paymentID, err))
			continue
		}
		if result.Disposition == payments.DispositionFulfilled {
			repaired++
		}
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(refs),
		"repaired":   repaired,
	})
	j.logg.Info(reportCtx, "order reconcile sweep complete")
	return errs
}

// Package payments bridges gateway notifications and the fulfillment engine.
// Webhook payloads are treated as hints only: the service always re-fetches
// the payment from the gateway and acts on that source of truth.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/fulfillment"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/metrics"
)

// Disposition classifies what a notification attempt did.
type Disposition string

const (
	DispositionFulfilled Disposition = "fulfilled"
	DispositionDuplicate Disposition = "duplicate"
	DispositionPending   Disposition = "pending"
	DispositionIgnored   Disposition = "ignored"
)

// Notification is the parsed webhook hint from the gateway.
type Notification struct {
	Type      string
	PaymentID string
}

// NotificationResult reports the outcome of one notification.
type NotificationResult struct {
	Disposition Disposition
	Fulfillment *fulfillment.Result
}

type gatewayClient interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// Service handles payment notifications and manual/repair confirmations.
type Service interface {
	HandleNotification(ctx context.Context, notif Notification) (*NotificationResult, error)
	// ConfirmPayment re-fetches the payment and runs fulfillment for it.
	// Used by the admin manual-fulfill endpoint and the reconcile job.
	ConfirmPayment(ctx context.Context, actorID, paymentID string) (*NotificationResult, error)
}

type service struct {
	gateway  gatewayClient
	engine   fulfillment.Service
	refs     RefRepository
	activity activity.Recorder
	logg     *logger.Logger
	metrics  *metrics.FulfillmentMetrics
	now      func() time.Time
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Gateway  gatewayClient
	Engine   fulfillment.Service
	Refs     RefRepository
	Activity activity.Recorder
	Logger   *logger.Logger
	Metrics  *metrics.FulfillmentMetrics
	Now      func() time.Time
}

// NewService builds the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("fulfillment engine required")
	}
	if params.Refs == nil {
		return nil, fmt.Errorf("payment ref repository required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		gateway:  params.Gateway,
		engine:   params.Engine,
		refs:     params.Refs,
		activity: params.Activity,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

func (s *service) HandleNotification(ctx context.Context, notif Notification) (*NotificationResult, error) {
	if !strings.EqualFold(notif.Type, "payment") {
		s.metrics.IncWebhook("ignored")
		return &NotificationResult{Disposition: DispositionIgnored}, nil
	}
	if notif.PaymentID == "" {
		s.metrics.IncWebhook("invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification missing payment id")
	}

	result, err := s.confirm(ctx, enums.ActorMobileUser, notif.PaymentID)
	if err != nil {
		s.metrics.IncWebhook("invalid")
		return nil, err
	}
	s.metrics.IncWebhook(string(result.Disposition))
	return result, nil
}

func (s *service) ConfirmPayment(ctx context.Context, actorID, paymentID string) (*NotificationResult, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if actorID == "" {
		actorID = enums.ActorSystem
	}

	result, err := s.confirm(ctx, actorID, paymentID)
	if err != nil {
		return nil, err
	}

	// Reconcile sweeps run as the system actor; only a human admin leaves a
	// manual-trigger trail.
	if actorID != enums.ActorSystem {
		entry := activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionManualFulfillment,
			EntityType: "payment",
			EntityID:   paymentID,
			Details:    map[string]any{"disposition": string(result.Disposition)},
		}
		if err := s.activity.RecordTx(ctx, nil, entry); err != nil {
			s.logg.Error(ctx, "record manual fulfillment trigger", err)
		}
	}
	return result, nil
}

func (s *service) confirm(ctx context.Context, actorID, paymentID string) (*NotificationResult, error) {
	ctx = s.logg.WithPaymentID(ctx, paymentID)

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		if mercadopago.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment unknown to gateway")
		}
		return nil, err
	}

	status := enums.GatewayPaymentStatus(payment.Status)
	if err := s.refs.Upsert(ctx, paymentID, status, s.now().UTC()); err != nil {
		// the ref table is a repair aid, not a gate; fulfillment proceeds
		s.logg.Error(ctx, "record payment ref", err)
	}

	if !status.IsApproved() {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"status": payment.Status}), "payment not approved, nothing to fulfill")
		return &NotificationResult{Disposition: DispositionPending}, nil
	}

	fulfilled, err := s.engine.ProcessConfirmedPayment(ctx, actorID, payment)
	if err != nil {
		return nil, err
	}

	disposition := DispositionFulfilled
	if fulfilled.AlreadyFulfilled {
		disposition = DispositionDuplicate
	}
	return &NotificationResult{Disposition: disposition, Fulfillment: fulfilled}, nil
}

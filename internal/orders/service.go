// Package orders owns the persisted order rows: admin reads, fee backfill
// writes, and the duplicate-payment guard the fulfillment engine relies on.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderDetail is an order with its decoded line items.
type OrderDetail struct {
	Order models.Order `json:"order"`
	Items []OrderItem  `json:"items"`
}

// Service defines order-level operations beyond the fulfillment engine.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*OrderDetail, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error)
	RecordFees(ctx context.Context, actorID string, orderID uuid.UUID, update FeeUpdate) error
}

type service struct {
	repo     Repository
	tx       txRunner
	activity activity.Recorder
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Activity activity.Recorder
}

// NewService builds an orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: params.Repo, tx: params.Tx, activity: params.Activity}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDetail(order)
}

func (s *service) GetByPaymentID(ctx context.Context, paymentID string) (*OrderDetail, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	order, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDetail(order)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error) {
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) RecordFees(ctx context.Context, actorID string, orderID uuid.UUID, update FeeUpdate) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if update.FeeAmount == nil && update.NetReceivedAmount == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fee fields provided")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFees(ctx, orderID, update); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order fees")
		}

		details := map[string]any{}
		if update.FeeAmount != nil {
			details["mp_fee_amount"] = update.FeeAmount.StringFixed(2)
		}
		if update.NetReceivedAmount != nil {
			details["net_received_amount"] = update.NetReceivedAmount.StringFixed(2)
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionFeeBackfilled,
			EntityType: "order",
			EntityID:   orderID.String(),
			Details:    details,
		})
	})
}

func toDetail(order *models.Order) (*OrderDetail, error) {
	items, err := DecodeItems(order.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order items")
	}
	return &OrderDetail{Order: *order, Items: items}, nil
}

// Package inventory owns per-variant stock counts and prices. Sale-path
// decrements are conditional updates so stock never goes negative under
// concurrent fulfillments.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockAdjustment is an admin stock change request. Delta may be negative;
// negative adjustments that would take stock below zero are rejected.
type StockAdjustment struct {
	CardID  string            `json:"card_id" validate:"required"`
	Version enums.CardVersion `json:"version" validate:"required"`
	Delta   int               `json:"delta" validate:"required"`
	Reason  string            `json:"reason,omitempty"`
}

// PriceUpdate is an admin price change request.
type PriceUpdate struct {
	CardID  string            `json:"card_id" validate:"required"`
	Version enums.CardVersion `json:"version" validate:"required"`
	Price   decimal.Decimal   `json:"price" validate:"required"`
}

// Service defines admin-facing inventory operations.
type Service interface {
	Get(ctx context.Context, cardID string, version enums.CardVersion) (*models.InventoryRecord, error)
	AdjustStock(ctx context.Context, actorID string, adj StockAdjustment) (*models.InventoryRecord, error)
	UpdatePrice(ctx context.Context, actorID string, update PriceUpdate) (*models.InventoryRecord, error)
	UpsertRecord(ctx context.Context, actorID string, record models.InventoryRecord) error
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

// NewService builds an inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: params.Repo, tx: params.Tx, activity: params.Activity}, nil
}

func (s *service) Get(ctx context.Context, cardID string, version enums.CardVersion) (*models.InventoryRecord, error) {
	if cardID == "" || !version.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id and version required")
	}
	record, err := s.repo.Find(ctx, cardID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record, nil
}

func (s *service) AdjustStock(ctx context.Context, actorID string, adj StockAdjustment) (*models.InventoryRecord, error) {
	if adj.CardID == "" || !adj.Version.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id and version required")
	}
	if adj.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must be non-zero")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if adj.Delta > 0 {
			if err := repo.AddStock(ctx, adj.CardID, adj.Version, adj.Delta); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add stock")
			}
		} else {
			ok, err := repo.TryDecrement(ctx, adj.CardID, adj.Version, -adj.Delta)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "adjustment would take stock below zero")
			}
		}

		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionStockAdjusted,
			EntityType: "inventory_record",
			EntityID:   adj.CardID + ":" + adj.Version.String(),
			Details: map[string]any{
				"delta":  adj.Delta,
				"reason": adj.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, adj.CardID, adj.Version)
}

func (s *service) UpdatePrice(ctx context.Context, actorID string, update PriceUpdate) (*models.InventoryRecord, error) {
	if update.CardID == "" || !update.Version.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id and version required")
	}
	if !update.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetPrice(ctx, update.CardID, update.Version, update.Price); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionPriceUpdated,
			EntityType: "inventory_record",
			EntityID:   update.CardID + ":" + update.Version.String(),
			Details:    map[string]any{"price": update.Price.StringFixed(2)},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, update.CardID, update.Version)
}

func (s *service) UpsertRecord(ctx context.Context, actorID string, record models.InventoryRecord) error {
	if record.CardID == "" || !record.Version.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "card id and version required")
	}
	if record.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if !record.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Upsert(ctx, &record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert inventory record")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionStockAdjusted,
			EntityType: "inventory_record",
			EntityID:   record.CardID + ":" + record.Version.String(),
			Details: map[string]any{
				"stock": record.Stock,
				"price": record.Price.StringFixed(2),
			},
		})
	})
}

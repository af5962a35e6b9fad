// Package checkout builds hosted-payment preferences for storefront carts.
//
// Each preference line item carries a structured "cardID:version" id so the
// payment callback can resolve the exact inventory variant without parsing
// human-readable titles.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
)

const maxCartLines = 50

// CartLine is one requested card variant in a checkout cart.
type CartLine struct {
	CardID   string `json:"card_id" validate:"required"`
	Version  string `json:"version" validate:"required,oneof=normal foil"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CartInput is the storefront checkout request.
type CartInput struct {
	Items      []CartLine `json:"items" validate:"required,min=1,dive"`
	PayerEmail string     `json:"payer_email" validate:"omitempty,email"`
}

// Session is the outcome of a preference build: where to redirect the buyer
// and the reference that correlates the eventual payment back to this cart.
type Session struct {
	PreferenceID      string          `json:"preference_id"`
	RedirectURL       string          `json:"redirect_url"`
	ExternalReference string          `json:"external_reference"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

type preferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// Service validates carts against the live catalog and creates gateway
// preferences for them.
type Service interface {
	CreatePreference(ctx context.Context, input CartInput) (*Session, error)
}

// ServiceParams carries the checkout service dependencies.
type ServiceParams struct {
	Gateway   preferenceCreator
	Cards     catalog.Repository
	Inventory inventory.Repository
	Config    config.CheckoutConfig
	Logger    *logger.Logger
}

type service struct {
	gateway preferenceCreator
	cards   catalog.Repository
	inv     inventory.Repository
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("checkout service requires a gateway client")
	}
	if params.Cards == nil || params.Inventory == nil {
		return nil, fmt.Errorf("checkout service requires catalog and inventory repositories")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("checkout service requires a logger")
	}
	return &service{
		gateway: params.Gateway,
		cards:   params.Cards,
		inv:     params.Inventory,
		cfg:     params.Config,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreatePreference(ctx context.Context, input CartInput) (*Session, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}
	if len(input.Items) > maxCartLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has too many items").
			WithDetails(map[string]any{"max_items": maxCartLines})
	}

	items := make([]mercadopago.PreferenceItem, 0, len(input.Items))
	total := decimal.Zero
	for _, line := range input.Items {
		item, err := s.buildItem(ctx, line)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity.Int()))))
	}

	externalRef := uuid.NewString()
	req := mercadopago.PreferenceRequest{
		Items: items,
		BackURLs: &mercadopago.BackURLs{
			Success: s.cfg.SuccessURL,
			Failure: s.cfg.FailureURL,
			Pending: s.cfg.PendingURL,
		},
		AutoReturn:        "approved",
		NotificationURL:   s.cfg.NotificationURL,
		ExternalReference: externalRef,
	}
	if email := strings.TrimSpace(input.PayerEmail); email != "" {
		req.Payer = &mercadopago.PreferencePayer{Email: email}
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"preference_id":      pref.ID,
		"external_reference": externalRef,
		"item_count":         len(items),
	})
	s.logg.Info(logCtx, "checkout preference created")

	return &Session{
		PreferenceID:      pref.ID,
		RedirectURL:       pref.InitPoint,
		ExternalReference: externalRef,
		TotalAmount:       total,
	}, nil
}

// buildItem resolves one cart line against the catalog. The resulting item id
// is the structured variant tag the fulfillment side maps back to inventory.
func (s *service) buildItem(ctx context.Context, line CartLine) (*mercadopago.PreferenceItem, error) {
	cardID := strings.TrimSpace(line.CardID)
	if cardID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line is missing a card id")
	}
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive").
			WithDetails(map[string]any{"card_id": cardID})
	}
	version, err := enums.ParseCardVersion(line.Version)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown card version").
			WithDetails(map[string]any{"card_id": cardID, "version": line.Version})
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found").
				WithDetails(map[string]any{"card_id": cardID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "card lookup failed")
	}

	record, err := s.inv.Find(ctx, cardID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card variant is not offered").
				WithDetails(map[string]any{"card_id": cardID, "version": version.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory lookup failed")
	}
	if record.Stock < line.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "not enough stock for cart line").
			WithDetails(map[string]any{
				"card_id":   cardID,
				"version":   version.String(),
				"requested": line.Quantity,
				"available": record.Stock,
			})
	}
	if !record.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "card variant has no sale price").
			WithDetails(map[string]any{"card_id": cardID, "version": version.String()})
	}

	return &mercadopago.PreferenceItem{
		ID:         cardID + ":" + version.String(),
		Title:      itemTitle(card, version),
		Quantity:   mercadopago.FlexInt(line.Quantity),
		UnitPrice:  record.Price,
		CurrencyID: s.cfg.Currency,
	}, nil
}

func itemTitle(card *models.Card, version enums.CardVersion) string {
	title := fmt.Sprintf("%s (%s %s)", card.Name, card.SetCode, card.CollectorNumber)
	if version == enums.CardVersionFoil {
		title += " - Foil"
	}
	return title
}

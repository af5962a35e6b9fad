// Package catalog serves the public card catalog and the admin-facing card
// management operations.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines catalog operations.
type Service interface {
	GetCard(ctx context.Context, id string) (*CardDetail, error)
	ListCards(ctx context.Context, filters ListFilters) (*CardList, error)
	CreateCard(ctx context.Context, actorID string, input CardInput) (*CardDetail, error)
	UpdateCard(ctx context.Context, actorID string, input CardInput) (*CardDetail, error)
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

// NewService builds a catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: params.Repo, tx: params.Tx, activity: params.Activity}, nil
}

func (s *service) GetCard(ctx context.Context, id string) (*CardDetail, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id required")
	}
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card")
	}

	records, err := s.repo.FindInventory(ctx, []string{card.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card inventory")
	}

	detail := CardDetail{Card: *card, Offerings: make([]Offering, 0, len(records))}
	for _, rec := range records {
		detail.Offerings = append(detail.Offerings, Offering{
			Version: rec.Version,
			Price:   rec.Price,
			Stock:   rec.Stock,
		})
	}
	return &detail, nil
}

func (s *service) ListCards(ctx context.Context, filters ListFilters) (*CardList, error) {
	filters.Limit = pagination.NormalizeLimit(filters.Limit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	cards, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cards")
	}

	ids := make([]string, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	records, err := s.repo.FindInventory(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list card inventory")
	}

	byCard := map[string][]Offering{}
	for _, rec := range records {
		byCard[rec.CardID] = append(byCard[rec.CardID], Offering{
			Version: rec.Version,
			Price:   rec.Price,
			Stock:   rec.Stock,
		})
	}

	list := CardList{Cards: make([]CardDetail, 0, len(cards)), Total: total}
	for _, card := range cards {
		list.Cards = append(list.Cards, CardDetail{Card: card, Offerings: byCard[card.ID]})
	}
	return &list, nil
}

func (s *service) CreateCard(ctx context.Context, actorID string, input CardInput) (*CardDetail, error) {
	card := input.toModel(time.Now().UTC())
	card.CreatedAt = card.UpdatedAt

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, card.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "card already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check card existence")
		}
		if err := repo.Create(ctx, &card); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create card")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionCardCreated,
			EntityType: "card",
			EntityID:   card.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &CardDetail{Card: card, Offerings: []Offering{}}, nil
}

func (s *service) UpdateCard(ctx context.Context, actorID string, input CardInput) (*CardDetail, error) {
	card := input.toModel(time.Now().UTC())

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, card.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load card")
		}
		card.CreatedAt = existing.CreatedAt

		if err := repo.Update(ctx, &card); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update card")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorID,
			Action:     enums.ActivityActionCardUpdated,
			EntityType: "card",
			EntityID:   card.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCard(ctx, card.ID)
}

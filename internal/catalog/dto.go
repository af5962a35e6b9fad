package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// ListFilters narrows catalog listings.
type ListFilters struct {
	SetCode string
	Rarity  string
	Search  string
	Limit   int
	Offset  int
}

// Offering is one purchasable (version, price, stock) row for a card.
type Offering struct {
	Version enums.CardVersion `json:"version"`
	Price   decimal.Decimal   `json:"price"`
	Stock   int               `json:"stock"`
}

// CardDetail is a catalog entry together with its purchasable offerings.
type CardDetail struct {
	Card      models.Card `json:"card"`
	Offerings []Offering  `json:"offerings"`
}

// CardList is a page of catalog entries.
type CardList struct {
	Cards []CardDetail `json:"cards"`
	Total int64        `json:"total"`
}

// CardInput carries the fields admins may set on a catalog entry.
type CardInput struct {
	ID              string  `json:"id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	SetCode         string  `json:"set_code" validate:"required"`
	CollectorNumber string  `json:"collector_number" validate:"required"`
	Rarity          string  `json:"rarity" validate:"required"`
	InkColor        *string `json:"ink_color,omitempty"`
	ImageURL        *string `json:"image_url,omitempty"`
}

func (in CardInput) toModel(now time.Time) models.Card {
	return models.Card{
		ID:              in.ID,
		Name:            in.Name,
		SetCode:         in.SetCode,
		CollectorNumber: in.CollectorNumber,
		Rarity:          in.Rarity,
		InkColor:        in.InkColor,
		ImageURL:        in.ImageURL,
		UpdatedAt:       now,
	}
}

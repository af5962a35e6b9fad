package fulfillment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
)

// variantSeparator splits a gateway line item id into card id and version,
// e.g. "tfc-1:foil".
const variantSeparator = ":"

// MappedItem is one gateway line item resolved to catalog coordinates.
type MappedItem struct {
	CardID    string
	Version   enums.CardVersion
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	// Known is false when the gateway id could not identify a card at all;
	// such items are skipped, never decremented.
	Known bool
	// TitleFallback marks items whose version came from the title text
	// rather than a structured variant tag.
	TitleFallback bool
}

// MapGatewayItems resolves gateway line items to catalog coordinates. The id
// is expected to carry a structured variant tag ("<card_id>:<version>");
// legacy items without a tag fall back to scanning the title for the word
// "Foil" (exact case, as the storefront renders it).
func MapGatewayItems(items []mercadopago.PreferenceItem) []MappedItem {
	mapped := make([]MappedItem, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, mapItem(item))
	}
	return mapped
}

func mapItem(item mercadopago.PreferenceItem) MappedItem {
	out := MappedItem{
		Title:     item.Title,
		Quantity:  int(item.Quantity),
		UnitPrice: item.UnitPrice,
	}

	id := strings.TrimSpace(item.ID)
	if id == "" {
		return out
	}

	if cardID, rawVersion, found := strings.Cut(id, variantSeparator); found {
		version, err := enums.ParseCardVersion(rawVersion)
		if err == nil && cardID != "" {
			out.CardID = cardID
			out.Version = version
			out.Known = true
			return out
		}
		// malformed tag: treat the whole id as a card id and fall through
		// to the title heuristic
	}

	out.CardID = strings.SplitN(id, variantSeparator, 2)[0]
	if out.CardID == "" {
		return out
	}
	out.Known = true
	out.TitleFallback = true
	out.Version = enums.CardVersionNormal
	if strings.Contains(item.Title, "Foil") {
		out.Version = enums.CardVersionFoil
	}
	return out
}

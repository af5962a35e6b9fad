package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// OrderItem is one line item snapshot stored on the order's items column.
// The outcome field preserves what happened to each item during fulfillment.
type OrderItem struct {
	CardID    string            `json:"card_id"`
	Version   enums.CardVersion `json:"version"`
	Title     string            `json:"title"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Outcome   enums.ItemOutcome `json:"outcome"`
}

// EncodeItems serializes the line item snapshots for the jsonb column.
func EncodeItems(items []OrderItem) (json.RawMessage, error) {
	return json.Marshal(items)
}

// DecodeItems deserializes the jsonb column back into line item snapshots.
func DecodeItems(raw json.RawMessage) ([]OrderItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []OrderItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status        string
	PaymentID     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Page is one page of orders.
type Page struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

// FeeUpdate carries the gateway cost fields backfilled onto an order.
type FeeUpdate struct {
	FeeAmount         *decimal.Decimal
	NetReceivedAmount *decimal.Decimal
}

package enums

// ItemOutcome records the per-line-item result of a fulfillment attempt.
// Failed items never block the rest of the order; the outcome is data
// surfaced to admins, not an error.
type ItemOutcome string

const (
	ItemOutcomeFulfilled         ItemOutcome = "fulfilled"
	ItemOutcomeInsufficientStock ItemOutcome = "insufficient_stock"
	ItemOutcomeNotFound          ItemOutcome = "item_not_found"
	ItemOutcomeSkippedUnknown    ItemOutcome = "skipped_unknown_item"
)

// String implements fmt.Stringer.
func (o ItemOutcome) String() string {
	return string(o)
}

// Fulfilled reports whether the item fully decremented.
func (o ItemOutcome) Fulfilled() bool {
	return o == ItemOutcomeFulfilled
}

package enums

// ActivityAction tags an entry in the append-only activity log.
type ActivityAction string

const (
	ActivityActionOrderCreated       ActivityAction = "order_created"
	ActivityActionStockAdjusted      ActivityAction = "stock_adjusted"
	ActivityActionPriceUpdated       ActivityAction = "price_updated"
	ActivityActionCardCreated        ActivityAction = "card_created"
	ActivityActionCardUpdated        ActivityAction = "card_updated"
	ActivityActionSubmissionApproved ActivityAction = "submission_approved"
	ActivityActionSubmissionRejected ActivityAction = "submission_rejected"
	ActivityActionFeeBackfilled      ActivityAction = "fee_backfilled"
	ActivityActionManualFulfillment  ActivityAction = "manual_fulfillment_triggered"
)

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// System actor identifiers recorded when no authenticated user triggered
// the change.
const (
	ActorSystem     = "system"
	ActorMobileUser = "mobile_user"
)

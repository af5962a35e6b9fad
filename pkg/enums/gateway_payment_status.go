package enums

// GatewayPaymentStatus mirrors Mercado Pago's payment status values. The
// gateway owns this lifecycle; we only read it. Unknown values are carried
// through untouched so forward-compatible parsing never drops a payment.
type GatewayPaymentStatus string

const (
	GatewayPaymentStatusPending     GatewayPaymentStatus = "pending"
	GatewayPaymentStatusApproved    GatewayPaymentStatus = "approved"
	GatewayPaymentStatusInProcess   GatewayPaymentStatus = "in_process"
	GatewayPaymentStatusRejected    GatewayPaymentStatus = "rejected"
	GatewayPaymentStatusCancelled   GatewayPaymentStatus = "cancelled"
	GatewayPaymentStatusRefunded    GatewayPaymentStatus = "refunded"
	GatewayPaymentStatusChargedBack GatewayPaymentStatus = "charged_back"
)

// String implements fmt.Stringer.
func (s GatewayPaymentStatus) String() string {
	return string(s)
}

// IsApproved reports whether fulfillment preconditions are met.
func (s GatewayPaymentStatus) IsApproved() bool {
	return s == GatewayPaymentStatusApproved
}

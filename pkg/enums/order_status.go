package enums

import "fmt"

// OrderStatus captures the fulfillment outcome recorded on an order.
type OrderStatus string

const (
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusPartial   OrderStatus = "partially_fulfilled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusFulfilled,
	OrderStatusPartial,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

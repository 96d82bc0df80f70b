package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusAwaitingConfirmation OrderStatus = "awaiting_confirmation"
	OrderStatusApproved             OrderStatus = "approved"
	OrderStatusCompleted            OrderStatus = "completed"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusReceived             OrderStatus = "received"
	OrderStatusRejected             OrderStatus = "rejected"
	OrderStatusCancelled            OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingConfirmation,
	OrderStatusApproved,
	OrderStatusCompleted,
	OrderStatusDelivered,
	OrderStatusReceived,
	OrderStatusRejected,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the order still holds a stock reservation.
func (s OrderStatus) IsOpen() bool {
	return s == OrderStatusAwaitingConfirmation || s == OrderStatusApproved
}

// IsFulfilled reports whether goods have been handed over.
func (s OrderStatus) IsFulfilled() bool {
	return s == OrderStatusCompleted || s == OrderStatusDelivered
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

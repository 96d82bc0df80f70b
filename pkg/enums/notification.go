package enums

import "fmt"

// NotificationEvent names an order or payment event fanned out to admins and customers.
type NotificationEvent string

const (
	NotificationOrderCreated          NotificationEvent = "order.created"
	NotificationOrderApproved         NotificationEvent = "order.approved"
	NotificationOrderRejected         NotificationEvent = "order.rejected"
	NotificationOrderDeliveryAssigned NotificationEvent = "order.delivery_assigned"
	NotificationOrderCompleted        NotificationEvent = "order.completed"
	NotificationOrderCancelled        NotificationEvent = "order.cancelled"
	NotificationOrderReceived         NotificationEvent = "order.received"
	NotificationPaymentPaid           NotificationEvent = "payment.paid"
	NotificationPaymentFailed         NotificationEvent = "payment.failed"
)

var validNotificationEvents = []NotificationEvent{
	NotificationOrderCreated,
	NotificationOrderApproved,
	NotificationOrderRejected,
	NotificationOrderDeliveryAssigned,
	NotificationOrderCompleted,
	NotificationOrderCancelled,
	NotificationOrderReceived,
	NotificationPaymentPaid,
	NotificationPaymentFailed,
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationEvent.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}

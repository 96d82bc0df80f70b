package enums

import "fmt"

// PaymentAttemptStatus mirrors a gateway's lifecycle for one payment row.
type PaymentAttemptStatus string

const (
	PaymentAttemptCreated   PaymentAttemptStatus = "created"
	PaymentAttemptPending   PaymentAttemptStatus = "pending"
	PaymentAttemptPaid      PaymentAttemptStatus = "paid"
	PaymentAttemptFailed    PaymentAttemptStatus = "failed"
	PaymentAttemptCancelled PaymentAttemptStatus = "cancelled"
)

var validPaymentAttemptStatuses = []PaymentAttemptStatus{
	PaymentAttemptCreated,
	PaymentAttemptPending,
	PaymentAttemptPaid,
	PaymentAttemptFailed,
	PaymentAttemptCancelled,
}

// String implements fmt.Stringer.
func (p PaymentAttemptStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentAttemptStatus.
func (p PaymentAttemptStatus) IsValid() bool {
	for _, candidate := range validPaymentAttemptStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the gateway can no longer change this attempt.
func (p PaymentAttemptStatus) IsTerminal() bool {
	return p == PaymentAttemptPaid || p == PaymentAttemptFailed || p == PaymentAttemptCancelled
}

// ParsePaymentAttemptStatus converts raw input into a PaymentAttemptStatus.
func ParsePaymentAttemptStatus(value string) (PaymentAttemptStatus, error) {
	for _, candidate := range validPaymentAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment attempt status %q", value)
}

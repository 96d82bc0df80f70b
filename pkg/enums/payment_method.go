package enums

import "fmt"

// PaymentMethod is chosen by the customer at checkout.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodPhonePe PaymentMethod = "phonepe"
	PaymentMethodStripe  PaymentMethod = "stripe"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodPhonePe,
	PaymentMethodStripe,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsOnline reports whether payment is collected through a gateway before fulfilment.
func (p PaymentMethod) IsOnline() bool {
	return p == PaymentMethodPhonePe || p == PaymentMethodStripe
}

// Gateway returns the gateway that collects this method, if any.
func (p PaymentMethod) Gateway() (PaymentGateway, bool) {
	switch p {
	case PaymentMethodPhonePe:
		return PaymentGatewayPhonePe, true
	case PaymentMethodStripe:
		return PaymentGatewayStripe, true
	default:
		return "", false
	}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

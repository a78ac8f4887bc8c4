package enums

import "fmt"

// PaymentMethod enumerates the supported ways to settle an order.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodTransfer   PaymentMethod = "transfer"
	PaymentMethodPaypal     PaymentMethod = "paypal"
	PaymentMethodCash       PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodTransfer,
	PaymentMethodPaypal,
	PaymentMethodCash,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresCardData reports whether the method needs card number and CVV.
func (m PaymentMethod) RequiresCardData() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
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

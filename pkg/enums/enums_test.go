package enums

import "testing"

func TestOrderStatusFulfillmentChain(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPaid, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusPaid, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCanceled, OrderStatusProcessing, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("paid"); err != nil {
		t.Fatalf("paid should parse: %v", err)
	}
	if _, err := ParseOrderStatus("PAID"); err == nil {
		t.Fatalf("parsing is case sensitive by design")
	}
}

func TestPaymentMethodCardRequirement(t *testing.T) {
	if !PaymentMethodCreditCard.RequiresCardData() || !PaymentMethodDebitCard.RequiresCardData() {
		t.Fatalf("card methods must require card data")
	}
	for _, m := range []PaymentMethod{PaymentMethodTransfer, PaymentMethodPaypal, PaymentMethodCash} {
		if m.RequiresCardData() {
			t.Fatalf("%s should not require card data", m)
		}
	}
}

func TestParsePaymentMethodRejectsUnknown(t *testing.T) {
	if _, err := ParsePaymentMethod("bitcoin"); err == nil {
		t.Fatalf("unknown method should not parse")
	}
}

func TestRoleValidity(t *testing.T) {
	if !RoleAdmin.IsValid() || !RoleCustomer.IsValid() || !RoleStoreOwner.IsValid() {
		t.Fatalf("known roles should be valid")
	}
	if Role("root").IsValid() {
		t.Fatalf("unknown role should be invalid")
	}
}

package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
)

// Info is the flat projection of one payment record.
type Info struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   uuid.UUID           `json:"order_id"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    enums.PaymentMethod `json:"method"`
	Status    enums.PaymentStatus `json:"status"`
	Reference string              `json:"reference"`
	PaidAt    time.Time           `json:"paid_at"`
}

// HistoryRecord flattens a paid order and its payment into one row, carrying
// both state machines.
type HistoryRecord struct {
	PaymentID   uuid.UUID           `json:"payment_id"`
	OrderID     uuid.UUID           `json:"order_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Method      enums.PaymentMethod `json:"method"`
	Reference   string              `json:"reference"`
	PaidAt      time.Time           `json:"paid_at"`
	Status      enums.PaymentStatus `json:"status"`
	OrderStatus enums.OrderStatus   `json:"order_status"`
}

// History is a user's full payment history plus its count.
type History struct {
	Payments []HistoryRecord `json:"payments"`
	Count    int             `json:"count"`
}

// RefundSummary reports the outcome of a refund.
type RefundSummary struct {
	PaymentID  uuid.UUID           `json:"payment_id"`
	OrderID    uuid.UUID           `json:"order_id"`
	Amount     decimal.Decimal     `json:"amount"`
	Status     enums.PaymentStatus `json:"status"`
	Reason     string              `json:"reason"`
	RefundedAt time.Time           `json:"refunded_at"`
}

// NewInfo projects a payment model.
func NewInfo(payment *models.Payment) Info {
	return Info{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		Amount:    payment.Amount,
		Method:    payment.Method,
		Status:    payment.Status,
		Reference: payment.Reference,
		PaidAt:    payment.PaidAt,
	}
}

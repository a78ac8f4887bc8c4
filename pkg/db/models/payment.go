package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bugabuga/commerce-backend/pkg/enums"
)

// Payment records a financial transaction against an order.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	Method    enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Reference string              `gorm:"column:reference;not null"`
	PaidAt    time.Time           `gorm:"column:paid_at;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

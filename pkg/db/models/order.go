package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bugabuga/commerce-backend/pkg/enums"
)

// Order is the immutable snapshot produced from a cart at checkout plus the
// payment/fulfillment state machine.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	ContactPhone    string            `gorm:"column:contact_phone;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

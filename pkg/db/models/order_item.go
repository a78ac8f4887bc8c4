package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures a frozen snapshot of one cart line at checkout time.
// Name, image, and unit price are copied so later product edits cannot
// rewrite order history.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	ProductImage *string         `gorm:"column:product_image"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

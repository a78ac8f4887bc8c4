package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemView is one cart line projected with live product data.
type ItemView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// View is the public projection of a user's cart.
type View struct {
	ID     uuid.UUID       `json:"id"`
	UserID uuid.UUID       `json:"user_id"`
	Total  decimal.Decimal `json:"total"`
	Items  []ItemView      `json:"items"`
}

package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// ItemView is one frozen order line as captured at checkout.
type ItemView struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage *string         `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// PaymentView is the payment nested inside an order projection.
type PaymentView struct {
	ID        uuid.UUID           `json:"id"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    enums.PaymentMethod `json:"method"`
	Status    enums.PaymentStatus `json:"status"`
	Reference string              `json:"reference"`
	PaidAt    time.Time           `json:"paid_at"`
}

// View is the public projection of an order.
type View struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	Status          enums.OrderStatus `json:"status"`
	Total           decimal.Decimal   `json:"total"`
	ShippingAddress string            `json:"shipping_address"`
	ContactPhone    string            `json:"contact_phone"`
	Items           []ItemView        `json:"items"`
	Payment         *PaymentView      `json:"payment,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// List is one page of a user's orders.
type List struct {
	Orders []View          `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// NewView projects an order model, including its lines and payment.
func NewView(order *models.Order) View {
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemView{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Subtotal:     item.Subtotal,
		})
	}
	view := View{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		ContactPhone:    order.ContactPhone,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
	if order.Payment != nil {
		view.Payment = &PaymentView{
			ID:        order.Payment.ID,
			Amount:    order.Payment.Amount,
			Method:    order.Payment.Method,
			Status:    order.Payment.Status,
			Reference: order.Payment.Reference,
			PaidAt:    order.Payment.PaidAt,
		}
	}
	return view
}

func newViews(orders []models.Order) []View {
	views := make([]View, 0, len(orders))
	for i := range orders {
		views = append(views, NewView(&orders[i]))
	}
	return views
}

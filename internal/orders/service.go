package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/cart"
	"github.com/bugabuga/commerce-backend/internal/catalog"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service materializes carts into immutable orders and drives the
// fulfillment workflow after payment.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, shippingAddress, contactPhone string) (*View, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*View, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*View, error)
}

type service struct {
	repo     Repository
	carts    cart.Repository
	products catalog.Repository
	tx       txRunner
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, carts cart.Repository, products catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, carts: carts, products: products, tx: tx}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, shippingAddress, contactPhone string) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	contactPhone = strings.TrimSpace(contactPhone)
	if contactPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact phone required")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		userCart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		lines, err := carts.ListItems(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
		}

		// freeze name, image and unit price per line so later product
		// edits cannot rewrite order history
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, err := products.FindProductByID(ctx, line.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for checkout")
			}
			subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(subtotal)
			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.ImageURL,
				Quantity:     line.Quantity,
				UnitPrice:    product.Price,
				Subtotal:     subtotal,
			})
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order := &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			Total:           total,
			ShippingAddress: shippingAddress,
			ContactPhone:    contactPhone,
			Items:           items,
		}
		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := carts.DeleteItemsByCart(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
		}
		if err := carts.UpdateTotal(ctx, userCart.ID, decimal.Zero); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "zero cart total")
		}

		projected := NewView(created)
		view = &projected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not belong to user")
	}
	view := NewView(order)
	return &view, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	params = pagination.Normalize(params)
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &List{
		Orders: newViews(orders),
		Page:   pagination.NewPage(params, total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*View, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		// paid is entered only through payment processing and canceled
		// only through refunds; this path covers fulfillment alone
		if !order.Status.CanAdvanceTo(status) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
		}
		if err := repo.UpdateStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = status
		projected := NewView(order)
		view = &projected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

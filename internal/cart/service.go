package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/catalog"
	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the cart workflow. Every mutation recomputes the cart
// total from live product prices inside a single transaction.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo     Repository
	products catalog.Repository
	users    users.Repository
	tx       txRunner
}

// NewService builds the cart service with the required dependencies.
func NewService(repo Repository, products catalog.Repository, usersRepo users.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, users: usersRepo, tx: tx}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findOrCreateCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		view, err = s.recompute(ctx, repo, s.products.WithTx(tx), cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		products := s.products.WithTx(tx)

		product, err := products.FindProductByID(ctx, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		cart, err := s.findOrCreateCart(ctx, repo, userID)
		if err != nil {
			return err
		}

		// one line per product: adding the same product merges quantities
		existing, err := repo.FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			if err := repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
		case err == gorm.ErrRecordNotFound:
			item := &models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		view, err = s.recompute(ctx, repo, products, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.findCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		item, err := repo.FindItem(ctx, cart.ID, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if err := repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}

		view, err = s.recompute(ctx, repo, s.products.WithTx(tx), cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.findCart(ctx, repo, userID)
		if err != nil {
			return err
		}

		// removing an absent line is a no-op
		item, err := repo.FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			if err := repo.DeleteItem(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
			}
		case err == gorm.ErrRecordNotFound:
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		view, err = s.recompute(ctx, repo, s.products.WithTx(tx), cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.findCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		// explicit zero rather than a recompute over an empty set
		if err := repo.UpdateTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "zero cart total")
		}
		view = &View{
			ID:     cart.ID,
			UserID: cart.UserID,
			Total:  decimal.Zero,
			Items:  []ItemView{},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) findCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) findOrCreateCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	// a cart is only created lazily for a user that actually exists
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	created, err := repo.Create(ctx, &models.Cart{
		UserID: userID,
		Total:  decimal.Zero,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// recompute rebuilds the projection and total from live product prices and
// persists the new total. Lines whose product has vanished contribute
// nothing.
func (s *service) recompute(ctx context.Context, repo Repository, products catalog.Repository, cart *models.Cart) (*View, error) {
	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	total := decimal.Zero
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		product, err := products.FindProductByID(ctx, item.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for total")
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		views = append(views, ItemView{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
	}

	if err := repo.UpdateTotal(ctx, cart.ID, total); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart total")
	}

	return &View{
		ID:     cart.ID,
		UserID: cart.UserID,
		Total:  total,
		Items:  views,
	}, nil
}

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/stores"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
	"github.com/bugabuga/commerce-backend/pkg/redis"
)

const recentLimit = 10

var minPrice = decimal.NewFromFloat(0.01)

// Service defines catalog browse and management operations.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductSummary, error)
	SearchProducts(ctx context.Context, query string, params pagination.Params) (*ProductList, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*ProductList, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*ProductList, error)
	RecentProducts(ctx context.Context) ([]ProductSummary, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductSummary, error)
	UpdateProduct(ctx context.Context, input UpdateProductInput) (*ProductSummary, error)
	DeleteProduct(ctx context.Context, actorID, productID uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategorySummary, error)
	GetCategory(ctx context.Context, categoryID uuid.UUID) (*CategorySummary, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategorySummary, error)
}

// CreateProductInput carries the fields accepted when listing a product.
type CreateProductInput struct {
	ActorID     uuid.UUID
	StoreID     uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	ImageURL    *string
}

// UpdateProductInput carries the mutable product fields. Nil pointers leave
// the current value untouched.
type UpdateProductInput struct {
	ActorID     uuid.UUID
	ProductID   uuid.UUID
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
}

// CreateCategoryInput carries the fields accepted when adding a category.
type CreateCategoryInput struct {
	Name        string
	Description *string
}

type service struct {
	repo   Repository
	stores stores.Repository
	cache  *cache
}

// NewService builds the catalog service. The cache store may be nil, in which
// case every read goes to the repository.
func NewService(repo Repository, storesRepo stores.Repository, cacheClient cacheStore, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if storesRepo == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	return &service{
		repo:   repo,
		stores: storesRepo,
		cache:  newCache(cacheClient, cacheTTL),
	}, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error) {
	params = pagination.Normalize(params)
	token := pageToken(params)
	if list, ok := s.cache.getList(ctx, redis.FamilyProducts, "", token); ok {
		return list, nil
	}

	products, total, err := s.repo.ListActiveProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := &ProductList{
		Products: newProductSummaries(products),
		Page:     pagination.NewPage(params, total),
	}
	s.cache.setList(ctx, redis.FamilyProducts, "", token, list)
	return list, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductSummary, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if summary, ok := s.cache.getProduct(ctx, productID.String()); ok {
		return summary, nil
	}

	product, err := s.findActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := NewProductSummary(product)
	s.cache.setProduct(ctx, &summary)
	return &summary, nil
}

func (s *service) SearchProducts(ctx context.Context, query string, params pagination.Params) (*ProductList, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	params = pagination.Normalize(params)
	products, total, err := s.repo.SearchProducts(ctx, query, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return &ProductList{
		Products: newProductSummaries(products),
		Page:     pagination.NewPage(params, total),
	}, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*ProductList, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	params = pagination.Normalize(params)
	token := pageToken(params)
	if list, ok := s.cache.getList(ctx, redis.FamilyByStore, storeID.String(), token); ok {
		return list, nil
	}

	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	products, total, err := s.repo.ListProductsByStore(ctx, storeID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by store")
	}
	list := &ProductList{
		Products: newProductSummaries(products),
		Page:     pagination.NewPage(params, total),
	}
	s.cache.setList(ctx, redis.FamilyByStore, storeID.String(), token, list)
	return list, nil
}

func (s *service) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*ProductList, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	params = pagination.Normalize(params)
	token := pageToken(params)
	if list, ok := s.cache.getList(ctx, redis.FamilyByCategory, categoryID.String(), token); ok {
		return list, nil
	}

	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	products, total, err := s.repo.ListProductsByCategory(ctx, categoryID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by category")
	}
	list := &ProductList{
		Products: newProductSummaries(products),
		Page:     pagination.NewPage(params, total),
	}
	s.cache.setList(ctx, redis.FamilyByCategory, categoryID.String(), token, list)
	return list, nil
}

func (s *service) RecentProducts(ctx context.Context) ([]ProductSummary, error) {
	if list, ok := s.cache.getList(ctx, redis.FamilyRecent, "", "top"); ok {
		return list.Products, nil
	}

	products, err := s.repo.ListRecentProducts(ctx, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent products")
	}
	summaries := newProductSummaries(products)
	s.cache.setList(ctx, redis.FamilyRecent, "", "top", &ProductList{Products: summaries})
	return summaries, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductSummary, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.LessThan(minPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to user")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is not active")
	}

	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}

	product := &models.Product{
		StoreID:     input.StoreID,
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.cache.invalidateListings(ctx)

	summary := NewProductSummary(created)
	return &summary, nil
}

func (s *service) UpdateProduct(ctx context.Context, input UpdateProductInput) (*ProductSummary, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.findActiveProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, product.StoreID, input.ActorID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
		product.Name = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.LessThan(minPrice) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01")
		}
		updates["price"] = *input.Price
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
		product.ImageURL = input.ImageURL
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		updates["category_id"] = *input.CategoryID
		product.CategoryID = input.CategoryID
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, product.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		s.cache.dropProduct(ctx, product.ID.String())
		s.cache.invalidateListings(ctx)
	}

	summary := NewProductSummary(product)
	return &summary, nil
}

func (s *service) DeleteProduct(ctx context.Context, actorID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.findActiveProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(ctx, product.StoreID, actorID); err != nil {
		return err
	}

	if err := s.repo.UpdateProduct(ctx, product.ID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	s.cache.dropProduct(ctx, product.ID.String())
	s.cache.invalidateListings(ctx)
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategorySummary, 0, len(categories))
	for i := range categories {
		out = append(out, NewCategorySummary(&categories[i]))
	}
	return out, nil
}

func (s *service) GetCategory(ctx context.Context, categoryID uuid.UUID) (*CategorySummary, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	category, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	summary := NewCategorySummary(category)
	return &summary, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategorySummary, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}

	taken, err := s.repo.ExistsCategoryByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
	}

	category := &models.Category{
		Name:        name,
		Description: input.Description,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	summary := NewCategorySummary(created)
	return &summary, nil
}

// findActiveProduct loads a product and hides soft-deleted rows behind a
// NotFound, so deactivated listings are indistinguishable from missing ones.
func (s *service) findActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) requireOwnership(ctx context.Context, storeID, actorID uuid.UUID) error {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to user")
	}
	return nil
}

package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Repository defines persistence operations for products and categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActiveProducts(ctx context.Context, params pagination.Params) ([]models.Product, int64, error)
	ListProductsByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Product, int64, error)
	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error)
	SearchProducts(ctx context.Context, query string, params pagination.Params) ([]models.Product, int64, error)
	ListRecentProducts(ctx context.Context, limit int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ExistsCategoryByName(ctx context.Context, name string) (bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

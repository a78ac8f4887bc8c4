package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListActiveProducts(ctx context.Context, params pagination.Params) ([]models.Product, int64, error) {
	return r.listProducts(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ?", true)
	})
}

func (r *repository) ListProductsByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	return r.listProducts(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ? AND store_id = ?", true, storeID)
	})
}

func (r *repository) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	return r.listProducts(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ? AND category_id = ?", true, categoryID)
	})
}

func (r *repository) SearchProducts(ctx context.Context, query string, params pagination.Params) ([]models.Product, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	return r.listProducts(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ? AND (LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", true, pattern, pattern)
	})
}

func (r *repository) listProducts(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) ([]models.Product, int64, error) {
	base := scope(r.db.WithContext(ctx).Model(&models.Product{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := base.
		Order(params.OrderClause()).
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *repository) ListRecentProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ExistsCategoryByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

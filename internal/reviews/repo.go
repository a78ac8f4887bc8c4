package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ExistsByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Review{}).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	return r.list(ctx, "product_id = ?", productID, params)
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	return r.list(ctx, "user_id = ?", userID, params)
}

func (r *repository) list(ctx context.Context, where string, arg uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where(where, arg)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := base.
		Order(params.OrderClause()).
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *repository) AverageRating(ctx context.Context, productID uuid.UUID) (*float64, error) {
	// AVG over zero rows is NULL, which scans into a nil pointer
	var average *float64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating)").
		Where("product_id = ?", productID).
		Scan(&average).Error
	if err != nil {
		return nil, err
	}
	return average, nil
}

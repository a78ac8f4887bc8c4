package stores

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

// NewRepository builds a stores repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListActive(ctx context.Context, params pagination.Params) ([]models.Store, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("is_active = ?", true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stores []models.Store
	err := base.
		Order(params.OrderClause()).
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&stores).Error
	if err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Updates(updates).Error
}

package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Repository defines persistence operations for stores.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, store *models.Store) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ListActive(ctx context.Context, params pagination.Params) ([]models.Store, int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

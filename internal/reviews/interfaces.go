package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Repository defines persistence operations for product reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ExistsByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Review, int64, error)
	AverageRating(ctx context.Context, productID uuid.UUID) (*float64, error)
}

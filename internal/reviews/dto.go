package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// View is the public projection of a review.
type View struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductList is one page of a product's reviews plus the running average.
// Average is nil when the product has no reviews; the HTTP layer renders
// that as 0.0.
type ProductList struct {
	Reviews []View          `json:"reviews"`
	Average *float64        `json:"average_rating"`
	Page    pagination.Page `json:"page"`
}

// UserList is one page of a user's reviews.
type UserList struct {
	Reviews []View          `json:"reviews"`
	Page    pagination.Page `json:"page"`
}

// NewView projects a review model.
func NewView(review *models.Review) View {
	return View{
		ID:        review.ID,
		UserID:    review.UserID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

func newViews(reviews []models.Review) []View {
	views := make([]View, 0, len(reviews))
	for i := range reviews {
		views = append(views, NewView(&reviews[i]))
	}
	return views
}

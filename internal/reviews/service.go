package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/catalog"
	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Service manages product reviews. Each user gets at most one review per
// product; rating stays in [1,5].
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	Update(ctx context.Context, input UpdateInput) (*View, error)
	Delete(ctx context.Context, actorID, reviewID uuid.UUID) error
	AverageRating(ctx context.Context, productID uuid.UUID) (*float64, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ProductList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserList, error)
}

// CreateInput carries the fields accepted when reviewing a product.
type CreateInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// UpdateInput carries the mutable review fields; user, product and creation
// time are immutable.
type UpdateInput struct {
	ActorID  uuid.UUID
	ReviewID uuid.UUID
	Rating   int
	Comment  *string
}

type service struct {
	repo     Repository
	products catalog.Repository
	users    users.Repository
}

// NewService builds the reviews service with the required dependencies.
func NewService(repo Repository, products catalog.Repository, usersRepo users.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, products: products, users: usersRepo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := validRating(input.Rating); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.requireActiveProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	// Pre-check keeps the common case friendly; the unique index catches
	// the race.
	exists, err := s.repo.ExistsByUserAndProduct(ctx, input.UserID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user already reviewed this product")
	}

	review := &models.Review{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	view := NewView(created)
	return &view, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*View, error) {
	if input.ReviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	if err := validRating(input.Rating); err != nil {
		return nil, err
	}

	review, err := s.findReview(ctx, input.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}

	updates := map[string]any{"rating": input.Rating}
	review.Rating = input.Rating
	if input.Comment != nil {
		updates["comment"] = *input.Comment
		review.Comment = input.Comment
	}
	if err := s.repo.Update(ctx, review.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}

	view := NewView(review)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, actorID, reviewID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id required")
	}
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}

func (s *service) AverageRating(ctx context.Context, productID uuid.UUID) (*float64, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.requireActiveProduct(ctx, productID); err != nil {
		return nil, err
	}
	average, err := s.repo.AverageRating(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average rating")
	}
	return average, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ProductList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.requireActiveProduct(ctx, productID); err != nil {
		return nil, err
	}

	params = pagination.Normalize(params)
	reviews, total, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product reviews")
	}
	average, err := s.repo.AverageRating(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average rating")
	}
	return &ProductList{
		Reviews: newViews(reviews),
		Average: average,
		Page:    pagination.NewPage(params, total),
	}, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	params = pagination.Normalize(params)
	reviews, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user reviews")
	}
	return &UserList{
		Reviews: newViews(reviews),
		Page:    pagination.NewPage(params, total),
	}, nil
}

func (s *service) findReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func (s *service) requireActiveProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

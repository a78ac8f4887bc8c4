package reviews

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/catalog"
	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

type stubReviewsRepo struct {
	reviews map[uuid.UUID]*models.Review
}

func newStubReviewsRepo() *stubReviewsRepo {
	return &stubReviewsRepo{reviews: make(map[uuid.UUID]*models.Review)}
}

func (s *stubReviewsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubReviewsRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()
	s.reviews[review.ID] = review
	return review, nil
}

func (s *stubReviewsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := s.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return review, nil
}

func (s *stubReviewsRepo) ExistsByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	for _, review := range s.reviews {
		if review.UserID == userID && review.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubReviewsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	review, ok := s.reviews[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if rating, ok := updates["rating"].(int); ok {
		review.Rating = rating
	}
	if comment, ok := updates["comment"].(string); ok {
		review.Comment = &comment
	}
	return nil
}

func (s *stubReviewsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.reviews, id)
	return nil
}

func (s *stubReviewsRepo) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	matched := make([]models.Review, 0)
	for _, review := range s.reviews {
		if review.ProductID == productID {
			matched = append(matched, *review)
		}
	}
	return matched, int64(len(matched)), nil
}

func (s *stubReviewsRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	matched := make([]models.Review, 0)
	for _, review := range s.reviews {
		if review.UserID == userID {
			matched = append(matched, *review)
		}
	}
	return matched, int64(len(matched)), nil
}

func (s *stubReviewsRepo) AverageRating(ctx context.Context, productID uuid.UUID) (*float64, error) {
	sum, count := 0, 0
	for _, review := range s.reviews {
		if review.ProductID == productID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	average := float64(sum) / float64(count)
	return &average, nil
}

type stubProductsRepo struct {
	products map[uuid.UUID]*models.Product
}

func newStubProductsRepo() *stubProductsRepo {
	return &stubProductsRepo{products: make(map[uuid.UUID]*models.Product)}
}

func (s *stubProductsRepo) addProduct() *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		StoreID:  uuid.New(),
		Name:     "product",
		Price:    decimal.RequireFromString("9.99"),
		IsActive: true,
	}
	s.products[product.ID] = product
	return product
}

func (s *stubProductsRepo) WithTx(tx *gorm.DB) catalog.Repository {
	return s
}

func (s *stubProductsRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductsRepo) ListActiveProducts(ctx context.Context, params pagination.Params) ([]models.Product, int64, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) ListProductsByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) SearchProducts(ctx context.Context, query string, params pagination.Params) ([]models.Product, int64, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) ListRecentProducts(ctx context.Context, limit int) ([]models.Product, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not implemented")
}

func (s *stubProductsRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) ExistsCategoryByName(ctx context.Context, name string) (bool, error) {
	panic("not implemented")
}

func (s *stubProductsRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	panic("not implemented")
}

type stubUsersRepo struct {
	byID map[uuid.UUID]*models.User
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{byID: make(map[uuid.UUID]*models.User)}
}

func (s *stubUsersRepo) addUser() *models.User {
	user := &models.User{ID: uuid.New(), Email: "reviewer@example.com", Role: enums.RoleCustomer, IsActive: true}
	s.byID[user.ID] = user
	return user
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) users.Repository {
	return s
}

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	panic("not implemented")
}

func testService(t *testing.T, repo Repository, products catalog.Repository, usersRepo users.Repository) Service {
	t.Helper()
	svc, err := NewService(repo, products, usersRepo)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestCreateReview(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	comment := "solid"
	view, err := svc.Create(context.Background(), CreateInput{
		UserID:    user.ID,
		ProductID: product.ID,
		Rating:    4,
		Comment:   &comment,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if view.Rating != 4 || view.Comment == nil || *view.Comment != "solid" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.CreatedAt.IsZero() {
		t.Fatal("expected stamped creation time")
	}
}

func TestCreateReviewUniquePerUserAndProduct(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	if _, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 5}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 3})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate review, got %v", err)
	}

	// a different user may still review the same product
	other := usersRepo.addUser()
	if _, err := svc.Create(context.Background(), CreateInput{UserID: other.ID, ProductID: product.ID, Rating: 2}); err != nil {
		t.Fatalf("other user's review failed: %v", err)
	}
}

func TestRatingBounds(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: rating})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for rating %d, got %v", rating, err)
		}
	}

	view, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Update(context.Background(), UpdateInput{ActorID: user.ID, ReviewID: view.ID, Rating: 6})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for out-of-range update, got %v", err)
	}
}

func TestCreateReviewRequiresUserAndProduct(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	_, err := svc.Create(context.Background(), CreateInput{UserID: uuid.New(), ProductID: product.ID, Rating: 3})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: uuid.New(), Rating: 3})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}

	inactive := products.addProduct()
	inactive.IsActive = false
	_, err = svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: inactive.ID, Rating: 3})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

func TestUpdateReviewTouchesRatingAndCommentOnly(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	created, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 2})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	comment := "improved after the patch"
	updated, err := svc.Update(context.Background(), UpdateInput{
		ActorID:  user.ID,
		ReviewID: created.ID,
		Rating:   5,
		Comment:  &comment,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Rating != 5 || updated.Comment == nil || *updated.Comment != comment {
		t.Fatalf("unexpected view %+v", updated)
	}
	if updated.UserID != user.ID || updated.ProductID != product.ID {
		t.Fatal("expected user and product to stay immutable")
	}

	_, err = svc.Update(context.Background(), UpdateInput{ActorID: uuid.New(), ReviewID: created.ID, Rating: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign review, got %v", err)
	}

	_, err = svc.Update(context.Background(), UpdateInput{ActorID: user.ID, ReviewID: uuid.New(), Rating: 1})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown review, got %v", err)
	}
}

func TestDeleteReview(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	created, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 3})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(context.Background(), uuid.New(), created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign review, got %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), user.ID, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestAverageRating(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	average, err := svc.AverageRating(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("average failed: %v", err)
	}
	if average != nil {
		t.Fatalf("expected nil average with zero reviews, got %v", *average)
	}

	for _, rating := range []int{2, 3, 5} {
		user := usersRepo.addUser()
		if _, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: rating}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	average, err = svc.AverageRating(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("average failed: %v", err)
	}
	if average == nil || math.Abs(*average-10.0/3.0) > 1e-9 {
		t.Fatalf("unexpected average %v", average)
	}

	_, err = svc.AverageRating(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestListByProductIncludesAverage(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	product := products.addProduct()
	svc := testService(t, repo, products, usersRepo)

	for _, rating := range []int{4, 2} {
		user := usersRepo.addUser()
		if _, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: rating}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	list, err := svc.ListByProduct(context.Background(), product.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Reviews) != 2 || list.Page.TotalItems != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Average == nil || *list.Average != 3.0 {
		t.Fatalf("unexpected average %v", list.Average)
	}
}

func TestListByUser(t *testing.T) {
	repo := newStubReviewsRepo()
	products := newStubProductsRepo()
	usersRepo := newStubUsersRepo()
	user := usersRepo.addUser()
	svc := testService(t, repo, products, usersRepo)

	for i := 0; i < 2; i++ {
		product := products.addProduct()
		if _, err := svc.Create(context.Background(), CreateInput{UserID: user.ID, ProductID: product.ID, Rating: 4}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	list, err := svc.ListByUser(context.Background(), user.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Reviews) != 2 || list.Page.TotalItems != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
}

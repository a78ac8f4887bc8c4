package catalog

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/stores"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
	goredis "github.com/redis/go-redis/v9"
)

type stubCatalogRepo struct {
	products   map[uuid.UUID]*models.Product
	categories map[uuid.UUID]*models.Category
	listCalls  int
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{
		products:   make(map[uuid.UUID]*models.Product),
		categories: make(map[uuid.UUID]*models.Category),
	}
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubCatalogRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubCatalogRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubCatalogRepo) activeProducts(keep func(*models.Product) bool) []models.Product {
	out := make([]models.Product, 0)
	for _, product := range s.products {
		if product.IsActive && keep(product) {
			out = append(out, *product)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *stubCatalogRepo) ListActiveProducts(ctx context.Context, params pagination.Params) ([]models.Product, int64, error) {
	s.listCalls++
	products := s.activeProducts(func(*models.Product) bool { return true })
	return products, int64(len(products)), nil
}

func (s *stubCatalogRepo) ListProductsByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	products := s.activeProducts(func(p *models.Product) bool { return p.StoreID == storeID })
	return products, int64(len(products)), nil
}

func (s *stubCatalogRepo) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	products := s.activeProducts(func(p *models.Product) bool {
		return p.CategoryID != nil && *p.CategoryID == categoryID
	})
	return products, int64(len(products)), nil
}

func (s *stubCatalogRepo) SearchProducts(ctx context.Context, query string, params pagination.Params) ([]models.Product, int64, error) {
	products := s.activeProducts(func(*models.Product) bool { return true })
	return products, int64(len(products)), nil
}

func (s *stubCatalogRepo) ListRecentProducts(ctx context.Context, limit int) ([]models.Product, error) {
	products := s.activeProducts(func(*models.Product) bool { return true })
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *stubCatalogRepo) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	product, ok := s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			if v, ok := value.(string); ok {
				product.Name = v
			}
		case "price":
			if v, ok := value.(decimal.Decimal); ok {
				product.Price = v
			}
		case "stock":
			if v, ok := value.(int); ok {
				product.Stock = v
			}
		case "is_active":
			if v, ok := value.(bool); ok {
				product.IsActive = v
			}
		}
	}
	return nil
}

func (s *stubCatalogRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	s.categories[category.ID] = category
	return category, nil
}

func (s *stubCatalogRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, ok := s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return category, nil
}

func (s *stubCatalogRepo) ExistsCategoryByName(ctx context.Context, name string) (bool, error) {
	for _, category := range s.categories {
		if category.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, *category)
	}
	return out, nil
}

type stubStoresRepo struct {
	stores map[uuid.UUID]*models.Store
}

func newStubStoresRepo() *stubStoresRepo {
	return &stubStoresRepo{stores: make(map[uuid.UUID]*models.Store)}
}

func (s *stubStoresRepo) WithTx(tx *gorm.DB) stores.Repository {
	return s
}

func (s *stubStoresRepo) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	s.stores[store.ID] = store
	return store, nil
}

func (s *stubStoresRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

func (s *stubStoresRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (s *stubStoresRepo) ListActive(ctx context.Context, params pagination.Params) ([]models.Store, int64, error) {
	return nil, 0, nil
}

func (s *stubStoresRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	return nil, nil
}

func (s *stubStoresRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

// stubCacheStore is an in-memory stand-in for pkg/redis with generation
// counters.
type stubCacheStore struct {
	data map[string]string
	gens map[string]int64
}

func newStubCacheStore() *stubCacheStore {
	return &stubCacheStore{
		data: make(map[string]string),
		gens: make(map[string]int64),
	}
}

func (s *stubCacheStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *stubCacheStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *stubCacheStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubCacheStore) ProductKey(productID string) string {
	return "catalog:product:" + productID
}

func (s *stubCacheStore) CatalogListKey(family string, generation int64, scope, page string) string {
	return "catalog:" + family + ":" + scope + ":" + page + ":g" + strconv.FormatInt(generation, 10)
}

func (s *stubCacheStore) CatalogGeneration(ctx context.Context, family string) (int64, error) {
	return s.gens[family], nil
}

func (s *stubCacheStore) BumpCatalogGeneration(ctx context.Context, families ...string) error {
	for _, family := range families {
		s.gens[family]++
	}
	return nil
}

func seedStore(storesRepo *stubStoresRepo, ownerID uuid.UUID) *models.Store {
	store := &models.Store{ID: uuid.New(), Name: "Vinyl Haven", OwnerID: ownerID, IsActive: true}
	storesRepo.stores[store.ID] = store
	return store
}

func testService(t *testing.T, repo Repository, storesRepo stores.Repository, cacheClient cacheStore) Service {
	t.Helper()
	svc, err := NewService(repo, storesRepo, cacheClient, time.Minute)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestCreateProductValidation(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	svc := testService(t, repo, storesRepo, nil)

	cases := []CreateProductInput{
		{ActorID: owner, StoreID: store.ID, Name: "", Price: decimal.NewFromInt(10)},
		{ActorID: owner, StoreID: store.ID, Name: "LP", Price: decimal.Zero},
		{ActorID: owner, StoreID: store.ID, Name: "LP", Price: decimal.NewFromInt(10), Stock: -1},
	}
	for i, input := range cases {
		_, err := svc.CreateProduct(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreateProductOwnershipAndStoreState(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	svc := testService(t, repo, storesRepo, nil)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: uuid.New(),
		StoreID: store.ID,
		Name:    "LP",
		Price:   decimal.NewFromInt(10),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	store.IsActive = false
	_, err = svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: owner,
		StoreID: store.ID,
		Name:    "LP",
		Price:   decimal.NewFromInt(10),
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inactive store, got %v", err)
	}
}

func TestDeleteProductIsSoftAndHidesReads(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	svc := testService(t, repo, storesRepo, nil)

	summary, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: owner,
		StoreID: store.ID,
		Name:    "LP",
		Price:   decimal.NewFromInt(10),
		Stock:   5,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.DeleteProduct(context.Background(), owner, summary.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// row survives but reads treat it as missing
	if _, ok := repo.products[summary.ID]; !ok {
		t.Fatal("soft delete must keep the row")
	}
	_, err = svc.GetProduct(context.Background(), summary.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for deactivated product, got %v", err)
	}

	list, err := svc.ListProducts(context.Background(), pagination.Params{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Products) != 0 {
		t.Fatalf("deactivated product must not be listed, got %d", len(list.Products))
	}
}

func TestListProductsUsesCacheUntilInvalidated(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	cacheStore := newStubCacheStore()
	svc := testService(t, repo, storesRepo, cacheStore)

	if _, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: owner,
		StoreID: store.ID,
		Name:    "LP",
		Price:   decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.ListProducts(context.Background(), pagination.Params{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.listCalls)
	}

	// second read is served from cache
	if _, err := svc.ListProducts(context.Background(), pagination.Params{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected cached read, repository hit %d times", repo.listCalls)
	}

	// a mutation bumps the generation and the next read misses
	if _, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: owner,
		StoreID: store.ID,
		Name:    "EP",
		Price:   decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.ListProducts(context.Background(), pagination.Params{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected invalidated cache to re-read, got %d calls", repo.listCalls)
	}
}

func TestUpdateProductDropsCachedProjection(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	cacheStore := newStubCacheStore()
	svc := testService(t, repo, storesRepo, cacheStore)

	summary, err := svc.CreateProduct(context.Background(), CreateProductInput{
		ActorID: owner,
		StoreID: store.ID,
		Name:    "LP",
		Price:   decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// warm the per-product cache
	if _, err := svc.GetProduct(context.Background(), summary.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, ok := cacheStore.data[cacheStore.ProductKey(summary.ID.String())]; !ok {
		t.Fatal("expected product cached after read")
	}

	newPrice := decimal.NewFromInt(12)
	updated, err := svc.UpdateProduct(context.Background(), UpdateProductInput{
		ActorID:   owner,
		ProductID: summary.ID,
		Price:     &newPrice,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected updated price, got %s", updated.Price)
	}
	if _, ok := cacheStore.data[cacheStore.ProductKey(summary.ID.String())]; ok {
		t.Fatal("expected cached projection dropped on update")
	}
}

func TestCreateCategoryUniqueName(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := testService(t, repo, newStubStoresRepo(), nil)

	if _, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Jazz"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Jazz"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRecentProductsCapped(t *testing.T) {
	repo := newStubCatalogRepo()
	storesRepo := newStubStoresRepo()
	owner := uuid.New()
	store := seedStore(storesRepo, owner)
	svc := testService(t, repo, storesRepo, nil)

	base := time.Now()
	for i := 0; i < 15; i++ {
		product := &models.Product{
			ID:        uuid.New(),
			StoreID:   store.ID,
			Name:      "LP",
			Price:     decimal.NewFromInt(10),
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		repo.products[product.ID] = product
	}

	recent, err := svc.RecentProducts(context.Background())
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("expected 10 recent products, got %d", len(recent))
	}
	if !recent[0].CreatedAt.After(recent[9].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
}

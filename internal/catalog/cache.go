package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bugabuga/commerce-backend/pkg/pagination"
	"github.com/bugabuga/commerce-backend/pkg/redis"
)

// cacheStore is the slice of pkg/redis the catalog cache needs. A nil store
// disables caching entirely; Redis failures degrade to repository reads.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ProductKey(productID string) string
	CatalogListKey(family string, generation int64, scope, page string) string
	CatalogGeneration(ctx context.Context, family string) (int64, error)
	BumpCatalogGeneration(ctx context.Context, families ...string) error
}

type cache struct {
	store cacheStore
	ttl   time.Duration
}

func newCache(store cacheStore, ttl time.Duration) *cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cache{store: store, ttl: ttl}
}

func (c *cache) enabled() bool {
	return c != nil && c.store != nil
}

func pageToken(params pagination.Params) string {
	return fmt.Sprintf("%d:%d:%s:%s", params.Page, params.Size, params.SortField, params.SortDirection)
}

func (c *cache) getProduct(ctx context.Context, productID string) (*ProductSummary, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.store.ProductKey(productID))
	if err != nil {
		return nil, false
	}
	var summary ProductSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (c *cache) setProduct(ctx context.Context, summary *ProductSummary) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.store.ProductKey(summary.ID.String()), string(raw), c.ttl)
}

func (c *cache) dropProduct(ctx context.Context, productID string) {
	if !c.enabled() {
		return
	}
	_ = c.store.Del(ctx, c.store.ProductKey(productID))
}

func (c *cache) getList(ctx context.Context, family, scope, page string) (*ProductList, bool) {
	if !c.enabled() {
		return nil, false
	}
	gen, err := c.store.CatalogGeneration(ctx, family)
	if err != nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.store.CatalogListKey(family, gen, scope, page))
	if err != nil {
		return nil, false
	}
	var list ProductList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	return &list, true
}

func (c *cache) setList(ctx context.Context, family, scope, page string, list *ProductList) {
	if !c.enabled() {
		return
	}
	gen, err := c.store.CatalogGeneration(ctx, family)
	if err != nil {
		return
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.store.CatalogListKey(family, gen, scope, page), string(raw), c.ttl)
}

// invalidateListings bumps every listing family. Old generation keys become
// unreachable and age out via TTL.
func (c *cache) invalidateListings(ctx context.Context) {
	if !c.enabled() {
		return
	}
	_ = c.store.BumpCatalogGeneration(ctx,
		redis.FamilyProducts,
		redis.FamilyRecent,
		redis.FamilyByStore,
		redis.FamilyByCategory,
	)
}

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestCatalogGeneration(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	gen, err := client.CatalogGeneration(ctx, FamilyProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != 0 {
		t.Fatalf("expected generation zero for missing counter, got %d", gen)
	}

	if err := client.BumpCatalogGeneration(ctx, FamilyProducts, FamilyRecent); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if err := client.BumpCatalogGeneration(ctx, FamilyProducts); err != nil {
		t.Fatalf("bump failed: %v", err)
	}

	gen, err = client.CatalogGeneration(ctx, FamilyProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != 2 {
		t.Fatalf("expected generation 2, got %d", gen)
	}

	gen, err = client.CatalogGeneration(ctx, FamilyRecent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != 1 {
		t.Fatalf("expected generation 1, got %d", gen)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.ProductKey("p-1"); got != "commerce:catalog:product:p-1" {
		t.Fatalf("unexpected product key %s", got)
	}
	if got := client.CatalogGenKey(FamilyRecent); got != "commerce:catalog:gen:recent" {
		t.Fatalf("unexpected generation key %s", got)
	}
	if got := client.CatalogListKey(FamilyByStore, 3, "s-1", "0:20"); got != "commerce:catalog:by_store:s-1:g3:0:20" {
		t.Fatalf("unexpected list key %s", got)
	}
	if got := client.CatalogListKey(FamilyProducts, 0, "", "0:20"); got != "commerce:catalog:products:g0:0:20" {
		t.Fatalf("scope-less list key should skip empty parts, got %s", got)
	}
	if got := client.RateLimitKey("login:1.2.3.4"); got != "commerce:rate_limit:login:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := m.incr[key]; ok {
		return redis.NewStringResult(fmt.Sprint(v), nil)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

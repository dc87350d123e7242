package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// DefaultCacheTTL is used when a cache is built with a non-positive ttl.
const DefaultCacheTTL = 5 * time.Minute

// Cache keeps the last product list fetched from the Source. Load reports
// found=false once the entry has expired.
type Cache interface {
	Load(ctx context.Context) ([]types.Product, bool, error)
	Store(ctx context.Context, products []types.Product) error
}

type catalogStore interface {
	SaveCatalog(ctx context.Context, payload []byte, ttl time.Duration) error
	LoadCatalog(ctx context.Context) ([]byte, bool, error)
}

// RedisCache shares the catalog across replicas.
type RedisCache struct {
	store catalogStore
	ttl   time.Duration
}

func NewRedisCache(store catalogStore, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{store: store, ttl: ttl}
}

func (c *RedisCache) Load(ctx context.Context) ([]types.Product, bool, error) {
	raw, found, err := c.store.LoadCatalog(ctx)
	if err != nil || !found {
		return nil, false, err
	}
	var products []types.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decode cached catalog: %w", err)
	}
	return products, true, nil
}

func (c *RedisCache) Store(ctx context.Context, products []types.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return c.store.SaveCatalog(ctx, raw, c.ttl)
}

// MemoryCache is the process-local Cache used without Redis.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	products []types.Product
	expires  time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Load(context.Context) ([]types.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.products == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return append([]types.Product(nil), c.products...), true, nil
}

func (c *MemoryCache) Store(_ context.Context, products []types.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = append([]types.Product(nil), products...)
	c.expires = c.now().Add(c.ttl)
	return nil
}

package application

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Apurer/storefront-client/internal/domains/catalog/domain"
	"github.com/Apurer/storefront-client/internal/domains/catalog/ports"
)

// Cache is the process-wide shadow copy of the remote catalog. Every refresh
// replaces the contents wholesale; the last refresh to resolve wins.
type Cache struct {
	gateway ports.Gateway
	logger  *slog.Logger

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int

	subMu  sync.Mutex
	subs   map[int]ports.RefreshFunc
	nextID int
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCache(gateway ports.Gateway, opts ...Option) *Cache {
	c := &Cache{
		gateway: gateway,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		byID:    map[string]int{},
		subs:    map[int]ports.RefreshFunc{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Refresh fetches the catalog and replaces the cached contents. On error the
// previous contents are kept. Records that fail validation are dropped.
func (c *Cache) Refresh(ctx context.Context) ([]domain.Product, error) {
	fetched, err := c.gateway.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(fetched))
	byID := make(map[string]int, len(fetched))
	for _, p := range fetched {
		if err := p.Validate(); err != nil {
			c.logger.WarnContext(ctx, "dropping invalid catalog record",
				slog.String("product.id", p.ID), slog.String("error", err.Error()))
			continue
		}
		if _, dup := byID[p.ID]; dup {
			c.logger.WarnContext(ctx, "dropping duplicate catalog record", slog.String("product.id", p.ID))
			continue
		}
		byID[p.ID] = len(products)
		products = append(products, p)
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.mu.Unlock()

	snapshot := clone(products)
	for _, fn := range c.subscribers() {
		fn(clone(snapshot))
	}
	return snapshot, nil
}

func (c *Cache) Lookup(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[idx], true
}

// First is the default selection after a refresh.
func (c *Cache) First() (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.products) == 0 {
		return domain.Product{}, false
	}
	return c.products[0], true
}

func (c *Cache) Snapshot() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.products)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Subscribe registers fn to run after every successful refresh, outside any
// cache lock.
func (c *Cache) Subscribe(fn ports.RefreshFunc) func() {
	if fn == nil {
		return func() {}
	}
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// CreateProduct adds a product remotely and refreshes the cache so it is
// selectable. A failed refresh is logged; the product was still created.
func (c *Cache) CreateProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	in, err := domain.NewProductInput(in.Name, in.Description, in.Price, in.Quantity)
	if err != nil {
		return domain.Product{}, mapError(err)
	}
	created, err := c.gateway.CreateProduct(ctx, in)
	if err != nil {
		return domain.Product{}, err
	}
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.WarnContext(ctx, "catalog refresh after create failed", slog.String("error", err.Error()))
	}
	return created, nil
}

func (c *Cache) subscribers() []ports.RefreshFunc {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	out := make([]ports.RefreshFunc, 0, len(c.subs))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func clone(products []domain.Product) []domain.Product {
	return append([]domain.Product{}, products...)
}

var _ ports.Service = (*Cache)(nil)

// Package query composes canonical cache keys for list views and performs
// the fetch through the resource cache.
package query

import (
	"context"
	"fmt"

	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/domain"
)

// PageLoader fetches one page of a kind from the remote API.
type PageLoader func(ctx context.Context, params domain.ListParams) (any, error)

// Composer routes list fetches for each kind through the cache.
type Composer struct {
	cache   *cache.Cache
	loaders map[domain.Kind]PageLoader
}

// NewComposer creates a Composer with no registered kinds.
func NewComposer(c *cache.Cache) *Composer {
	return &Composer{cache: c, loaders: make(map[domain.Kind]PageLoader)}
}

// Register binds the loader used for kind. Panics on duplicate registration
// so wiring mistakes surface at startup.
func (c *Composer) Register(kind domain.Kind, loader PageLoader) {
	if _, exists := c.loaders[kind]; exists {
		panic("query: duplicate loader registered for kind: " + string(kind))
	}
	c.loaders[kind] = loader
}

// Key builds the canonical key for a list view.
func (c *Composer) Key(kind domain.Kind, filters domain.Filters, page domain.PageRequest) domain.QueryKey {
	return domain.NewQueryKey(kind, filters, page)
}

// Fetch returns the page for (kind, filters, page), served from the cache
// when fresh.
func (c *Composer) Fetch(ctx context.Context, kind domain.Kind, filters domain.Filters, page domain.PageRequest) (cache.Entry, error) {
	loader, ok := c.loaders[kind]
	if !ok {
		return cache.Entry{}, fmt.Errorf("fetch %q: unknown kind: %w", kind, domain.ErrInvalidRequest)
	}

	key := c.Key(kind, filters, page)
	params := key.Params()
	return c.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx, params)
	})
}

// Typed fetches kind and asserts the cached value's page type.
func Typed[T any](ctx context.Context, c *Composer, kind domain.Kind, filters domain.Filters, page domain.PageRequest) (*domain.Page[T], cache.Entry, error) {
	e, err := c.Fetch(ctx, kind, filters, page)
	if err != nil {
		return nil, cache.Entry{}, err
	}
	p, ok := e.Value.(*domain.Page[T])
	if !ok {
		return nil, e, fmt.Errorf("fetch %q: cached value is %T: %w", kind, e.Value, domain.ErrInvalidResponse)
	}
	return p, e, nil
}

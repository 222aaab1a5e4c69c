// Package cache is the process-wide read-through, write-invalidate store of
// server list responses, keyed by domain.QueryKey.
//
// Entries are never computed locally. A Fetch either returns a fresh entry,
// joins the load already in flight for the same key, or runs the loader once.
// Invalidate only marks entries stale, so callers can keep rendering the last
// known value until the next load completes.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"vn.io.arda/console-sync/internal/domain"
)

const (
	DefaultFreshWindow = 5 * time.Second
	DefaultLoadTimeout = 15 * time.Second
	DefaultMaxEntries  = 256
)

// Loader performs the network fetch for one key.
type Loader func(ctx context.Context) (any, error)

// Entry is a snapshot of one cache slot. Callers receive copies; the cache's
// own bookkeeping is never exposed.
type Entry struct {
	Key       domain.QueryKey
	Value     any
	FetchedAt time.Time
	Stale     bool

	gen uint64
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries       int    `json:"entries"`
	InFlight      int    `json:"inFlight"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Loads         uint64 `json:"loads"`
	Invalidations uint64 `json:"invalidations"`
}

// Options tunes a Cache. Zero fields take the defaults.
type Options struct {
	FreshWindow time.Duration
	LoadTimeout time.Duration
	MaxEntries  int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// flight tracks the single load in progress for a key.
type flight struct {
	key   domain.QueryKey
	gen   uint64
	dirty bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, *Entry]
	inflight map[string]*flight
	group    singleflight.Group
	gen      uint64
	stats    Stats

	freshWindow time.Duration
	loadTimeout time.Duration
	now         func() time.Time
}

// New creates a Cache bounded to opts.MaxEntries slots. When full, the
// least-recently-fetched entry is evicted; reads do not count as fetches.
func New(opts Options) (*Cache, error) {
	if opts.FreshWindow <= 0 {
		opts.FreshWindow = DefaultFreshWindow
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	entries, err := lru.New[string, *Entry](opts.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &Cache{
		entries:     entries,
		inflight:    make(map[string]*flight),
		freshWindow: opts.FreshWindow,
		loadTimeout: opts.LoadTimeout,
		now:         opts.Now,
	}, nil
}

// Get returns the last stored entry for key without fetching.
func (c *Cache) Get(key domain.QueryKey) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(key.String())
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Fetch returns the entry for key, loading it with loader when the stored
// entry is missing, stale or older than the fresh window.
//
// Concurrent callers for the same key share one load and observe the same
// value or error. ctx bounds how long this caller waits; the shared load
// itself runs to completion under the cache's load timeout.
func (c *Cache) Fetch(ctx context.Context, key domain.QueryKey, loader Loader) (Entry, error) {
	id := key.String()

	c.mu.Lock()
	if e, ok := c.entries.Peek(id); ok && c.isFresh(e) {
		c.stats.Hits++
		c.mu.Unlock()
		return *e, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	e, err := c.await(ctx, key, id, loader)
	if err != nil {
		return Entry{}, err
	}
	if e.Stale {
		// Invalidated while loading: the value may predate the mutation that
		// invalidated it. Wait for one load that started afterwards.
		log.Debug().Str("key", id).Msg("cache: load invalidated in flight, reloading")
		if e, err = c.await(ctx, key, id, loader); err != nil {
			return Entry{}, err
		}
	}
	return *e, nil
}

func (c *Cache) await(ctx context.Context, key domain.QueryKey, id string, loader Loader) (*Entry, error) {
	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(ctx, key, id, loader)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load runs inside the singleflight call, so at most one exists per key.
func (c *Cache) load(ctx context.Context, key domain.QueryKey, id string, loader Loader) (*Entry, error) {
	c.mu.Lock()
	// A flight for this key may have completed between the caller's miss and
	// this call starting.
	if e, ok := c.entries.Peek(id); ok && c.isFresh(e) {
		snapshot := *e
		c.mu.Unlock()
		return &snapshot, nil
	}
	c.gen++
	f := &flight{key: key, gen: c.gen}
	c.inflight[id] = f
	c.stats.Loads++
	c.mu.Unlock()

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
	defer cancel()

	val, err := loader(lctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[id] == f {
		delete(c.inflight, id)
	}
	if err != nil {
		log.Debug().Err(err).Str("key", id).Msg("cache: load failed")
		return nil, err
	}

	e := &Entry{Key: key, Value: val, FetchedAt: c.now(), Stale: f.dirty, gen: f.gen}
	if cur, ok := c.entries.Peek(id); ok && cur.gen > f.gen {
		return e, nil
	}
	c.entries.Add(id, e)

	// Hand waiters a snapshot so a later Invalidate cannot flip what they saw.
	snapshot := *e
	return &snapshot, nil
}

// Invalidate marks every entry whose key matches as stale, keeping its value.
// Loads in flight for matching keys are marked so their result is stored
// stale. Returns the number of entries newly marked.
func (c *Cache) Invalidate(match func(domain.QueryKey) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	marked := 0
	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || e.Stale || !match(e.Key) {
			continue
		}
		e.Stale = true
		marked++
	}
	for _, f := range c.inflight {
		if match(f.key) {
			f.dirty = true
		}
	}
	c.stats.Invalidations++
	return marked
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.entries.Len()
	s.InFlight = len(c.inflight)
	return s
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

func (c *Cache) isFresh(e *Entry) bool {
	return !e.Stale && c.now().Sub(e.FetchedAt) < c.freshWindow
}

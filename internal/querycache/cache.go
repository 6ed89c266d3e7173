// Package querycache holds server responses grouped by resource tag and
// layers speculative patches on top of them.
//
// Each cached page keeps the last server response (its base) and an ordered
// list of active patches. The live page is always base with the active
// patches applied in order. Undoing the newest patch restores the snapshot
// captured right before it; undoing an older one rebuilds the page from the
// base and the patches that remain, so sibling patches keep their effect.
//
// Every entry carries a generation bumped by Invalidate and Commit. A load
// remembers the generation it started at; a response that lands after a newer
// generation keeps the commits it cannot contain and leaves the page stale.
package querycache

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/maxq/console/internal/domain"
)

// Tag identifies the backend resource a page belongs to.
type Tag string

const (
	TagUsers   Tag = "Users"
	TagProfile Tag = "Profile"
)

// Key addresses one cached page.
type Key struct {
	Tag  Tag
	Name string
}

func (k Key) String() string {
	return string(k.Tag) + "/" + k.Name
}

// Handle refers to a cached page returned by Select.
type Handle struct {
	key Key
}

// Key returns the cache key of the page.
func (h Handle) Key() Key {
	return h.key
}

// Mutator edits a page draft in place and reports whether it changed anything.
type Mutator func(page *domain.Page) bool

// FetchFunc loads a page from the backend.
type FetchFunc func(ctx context.Context) (domain.Page, error)

type patch struct {
	id        string
	mutate    Mutator
	snapshot  domain.Page
	committed bool
	// generation the commit happened at
	commitGen uint64
}

type entry struct {
	base    domain.Page
	live    domain.Page
	patches []*patch
	// committed patches already merged into base, kept until a fresh load
	folded []*patch
	stale  bool
	gen    uint64
}

// Cache is safe for concurrent use; every read and write goes through one mutex.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	flight  singleflight.Group
	logger  *zap.Logger
}

// Option configures the cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores a current server response as the base of the page. Committed
// patches are dropped since the response already reflects them; pending ones
// are replayed on top.
func (c *Cache) Put(key Key, page domain.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	c.store(e, page, e.gen)
}

// entry returns the entry of key, creating it. Callers hold c.mu.
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// generation returns the current generation of key. Missing pages are at zero.
func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.gen
	}
	return 0
}

// store installs a response fetched at generation since. Commits made after
// since are not part of the response and are applied again on top of it.
func (c *Cache) store(e *entry, page domain.Page, since uint64) {
	e.base = page.Clone()

	folded := e.folded[:0]
	for _, p := range e.folded {
		if p.commitGen > since {
			p.mutate(&e.base)
			folded = append(folded, p)
		}
	}
	e.folded = folded

	active := e.patches[:0]
	for _, p := range e.patches {
		if !p.committed || p.commitGen > since {
			active = append(active, p)
		}
	}
	e.patches = active

	e.stale = since < e.gen
	e.replay()
	e.fold()
}

// Get returns a copy of the live page.
func (c *Cache) Get(key Key) (domain.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Page{}, false
	}
	return e.live.Clone(), true
}

// Evict drops a page and every patch layered on it.
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Select returns handles for every cached page carrying the tag, ordered by key name.
func (c *Cache) Select(tag Tag) []Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := make([]Handle, 0, len(c.entries))
	for key := range c.entries {
		if key.Tag == tag {
			handles = append(handles, Handle{key: key})
		}
	}
	sort.Slice(handles, func(i, j int) bool {
		return handles[i].key.Name < handles[j].key.Name
	})
	return handles
}

// Patch applies mutate to the page behind h. It returns false, and no undo
// handle, when the page is gone or mutate reports no change.
func (c *Cache) Patch(h Handle, mutate Mutator) (*Undo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[h.key]
	if !ok {
		return nil, false
	}

	draft := e.live.Clone()
	if !mutate(&draft) {
		return nil, false
	}

	p := &patch{
		id:       uuid.NewString(),
		mutate:   mutate,
		snapshot: e.live,
	}
	e.patches = append(e.patches, p)
	e.live = draft

	c.logger.Debug("page patched", zap.String("key", h.key.String()), zap.String("patch_id", p.id))
	return &Undo{cache: c, key: h.key, id: p.id}, true
}

// Invalidate marks every page of the tag stale.
func (c *Cache) Invalidate(tag Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if key.Tag == tag {
			e.stale = true
			e.gen++
		}
	}
}

// Query returns the live page, loading it through fetch when absent or stale.
// Concurrent loads of the same key share one fetch.
func (c *Cache) Query(ctx context.Context, key Key, fetch FetchFunc) (domain.Page, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		page := e.live.Clone()
		c.mu.Unlock()
		return page, nil
	}
	c.mu.Unlock()

	if err := c.load(ctx, key, fetch); err != nil {
		return domain.Page{}, err
	}

	page, _ := c.Get(key)
	return page, nil
}

// Refresh reloads every stale page of the tag in parallel.
func (c *Cache) Refresh(ctx context.Context, tag Tag, fetchFor func(Key) FetchFunc) error {
	c.mu.Lock()
	var stale []Key
	for key, e := range c.entries {
		if key.Tag == tag && e.stale {
			stale = append(stale, key)
		}
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range stale {
		key := key
		g.Go(func() error {
			return c.load(gctx, key, fetchFor(key))
		})
	}
	return g.Wait()
}

func (c *Cache) load(ctx context.Context, key Key, fetch FetchFunc) error {
	_, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		since := c.generation(key)
		page, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		e := c.entry(key)
		c.store(e, page, since)
		late := e.stale
		c.mu.Unlock()

		if late {
			c.logger.Debug("late page response kept stale", zap.String("key", key.String()))
		}
		return nil, nil
	})
	if err != nil {
		c.logger.Warn("page load failed", zap.String("key", key.String()), zap.Error(err))
	}
	return err
}

func (c *Cache) settle(key Key, id string, commit bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	idx := e.find(id)
	if idx < 0 {
		return false
	}

	if commit {
		e.gen++
		e.patches[idx].committed = true
		e.patches[idx].commitGen = e.gen
		e.fold()
		return true
	}

	if idx == len(e.patches)-1 {
		e.live = e.patches[idx].snapshot
		e.patches = e.patches[:idx]
	} else {
		e.patches = append(e.patches[:idx], e.patches[idx+1:]...)
		e.replay()
	}
	e.fold()
	return true
}

func (e *entry) find(id string) int {
	for i, p := range e.patches {
		if p.id == id {
			return i
		}
	}
	return -1
}

// fold merges the committed prefix of the patch list into the base.
func (e *entry) fold() {
	for len(e.patches) > 0 && e.patches[0].committed {
		e.patches[0].mutate(&e.base)
		e.folded = append(e.folded, e.patches[0])
		e.patches = e.patches[1:]
	}
}

// replay rebuilds live from base and refreshes every patch snapshot.
func (e *entry) replay() {
	live := e.base.Clone()
	for _, p := range e.patches {
		p.snapshot = live.Clone()
		p.mutate(&live)
	}
	e.live = live
}

// Package directory keeps a cache-first view of identity records in front of
// the directory store.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campuswire/pkg/interfaces"
	"campuswire/pkg/types"
)

// DefaultTTL bounds how stale a cached identity may be.
const DefaultTTL = 5 * time.Minute

type entry struct {
	identity types.Identity
	loadedAt time.Time
}

// Cache implements interfaces.Directory. Identity lookups are served from
// memory when fresh. Rosters and attribute queries always go to the backing
// store so audiences are resolved against current data.
type Cache struct {
	backing interfaces.Directory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	identities map[string]entry
	hits       int
	misses     int
	mu         sync.RWMutex
}

// NewCache wraps a directory store. A non-positive ttl uses DefaultTTL.
func NewCache(backing interfaces.Directory, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		backing:    backing,
		ttl:        ttl,
		logger:     logger.With(slog.String("component", "directory_cache")),
		now:        time.Now,
		identities: make(map[string]entry),
	}
}

// Preload loads every active student into the cache.
func (c *Cache) Preload(ctx context.Context) error {
	students, err := c.backing.ActiveStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to preload directory: %w", err)
	}

	now := c.now()
	c.mu.Lock()
	for _, s := range students {
		c.identities[s.ID] = entry{identity: s, loadedAt: now}
	}
	c.mu.Unlock()

	c.logger.Info("directory cache preloaded", slog.Int("identities", len(students)))
	return nil
}

// Refresh drops every cached identity and preloads again.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.identities = make(map[string]entry)
	c.mu.Unlock()
	return c.Preload(ctx)
}

// Invalidate forgets one identity, e.g. after its record changed.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.identities, id)
	c.mu.Unlock()
}

// FindIdentity returns the cached record when fresh, else reads through.
// Misses are not cached.
func (c *Cache) FindIdentity(ctx context.Context, id string) (types.Identity, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.identities[id]
	c.mu.RUnlock()
	if ok && now.Sub(e.loadedAt) < c.ttl {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.identity, nil
	}

	identity, err := c.backing.FindIdentity(ctx, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if err != nil {
		if errors.Is(err, interfaces.ErrIdentityNotFound) {
			delete(c.identities, id)
		}
		return types.Identity{}, err
	}
	c.identities[id] = entry{identity: identity, loadedAt: now}
	return identity, nil
}

func (c *Cache) FindByAttribute(ctx context.Context, attr types.Attribute, value string) ([]types.Identity, error) {
	return c.backing.FindByAttribute(ctx, attr, value)
}

func (c *Cache) ActiveStudents(ctx context.Context) ([]types.Identity, error) {
	return c.backing.ActiveStudents(ctx)
}

func (c *Cache) CourseRoster(ctx context.Context, courseID string) ([]string, bool, error) {
	return c.backing.CourseRoster(ctx, courseID)
}

// GetStats returns cache statistics for monitoring and debugging.
func (c *Cache) GetStats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]int{
		"cached_identities": len(c.identities),
		"hits":              c.hits,
		"misses":            c.misses,
	}
}

var _ interfaces.Directory = (*Cache)(nil)

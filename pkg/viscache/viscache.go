// Package viscache implements the two per-version construction strategies
// from spec.md §5: lazy build-on-first-read under a read-write lock, and
// eager up-front construction of every known version via errgroup. It is a
// reusable primitive for callers that want to cache per-version
// Gmod/Codebooks/Locations/GmodVersioning values — not a singleton, and
// unaware of how those values are built.
package viscache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dnv-opensource/vista-sdk-go/api/visversion"
)

// Cache holds at most one built value of T per VisVersion, safe for
// concurrent use once constructed (§5 "Shared state").
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[visversion.VisVersion]T
}

// New returns an empty Cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: map[visversion.VisVersion]T{}}
}

// BuildFunc constructs the cached value for one version.
type BuildFunc[T any] func(version visversion.VisVersion) (T, error)

// GetOrBuild implements the lazy strategy (§5 option (a)): a read-lock fast
// path returns an already-built entry; otherwise a write-lock slow path
// double-checks (another goroutine may have finished first) and builds
// exclusively, so concurrent callers requesting the same version share one
// build rather than racing.
func (c *Cache[T]) GetOrBuild(version visversion.VisVersion, build BuildFunc[T]) (T, error) {
	c.mu.RLock()
	if v, ok := c.entries[version]; ok {
		c.mu.RUnlock()

		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[version]; ok {
		return v, nil
	}

	v, err := build(version)
	if err != nil {
		var zero T

		return zero, err
	}

	c.entries[version] = v

	return v, nil
}

// BuildAll implements the eager strategy (§5 option (b)): one goroutine per
// version via errgroup.Group, returning the first construction error. Every
// goroutine populates the same map under the write lock as it finishes, so
// a version already present (e.g. seeded by an earlier GetOrBuild) is left
// untouched rather than rebuilt.
func (c *Cache[T]) BuildAll(ctx context.Context, versions []visversion.VisVersion, build BuildFunc[T]) error {
	g, _ := errgroup.WithContext(ctx)

	for _, version := range versions {
		version := version

		g.Go(func() error {
			c.mu.RLock()
			_, ok := c.entries[version]
			c.mu.RUnlock()

			if ok {
				return nil
			}

			v, err := build(version)
			if err != nil {
				return err
			}

			c.mu.Lock()
			c.entries[version] = v
			c.mu.Unlock()

			return nil
		})
	}

	return g.Wait() //nolint:wrapcheck
}

// Get returns the cached value for version without building it.
func (c *Cache[T]) Get(version visversion.VisVersion) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[version]

	return v, ok
}

// Len returns the number of versions currently built.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

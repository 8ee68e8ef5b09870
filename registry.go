package sqlgraph

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Registry is the PathCache spec.md §2 describes: "DbModel ... cached
// keyed by endpoint path". Multiple endpoint paths can share one process
// (distinct GraphQL endpoints over distinct connections); each gets its own
// lazily built *Engine the first time it is requested, and every
// concurrent request for the same not-yet-built path waits on one shared
// build via singleflight rather than racing duplicate schema reads.
type Registry struct {
	cache   *lru.TwoQueueCache[string, *Engine]
	group   singleflight.Group
	factory func(path string) (*Engine, error)
}

// NewRegistry returns a Registry of at most size entries, building missing
// entries with factory.
func NewRegistry(size int, factory func(path string) (*Engine, error)) (*Registry, error) {
	cache, err := lru.New2Q[string, *Engine](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache, factory: factory}, nil
}

// Get returns the Engine for path, building it via factory on first access.
// Concurrent callers requesting the same unbuilt path share one build.
func (r *Registry) Get(path string) (*Engine, error) {
	if e, ok := r.cache.Get(path); ok {
		return e, nil
	}

	v, err, _ := r.group.Do(path, func() (interface{}, error) {
		if e, ok := r.cache.Get(path); ok {
			return e, nil
		}
		e, err := r.factory(path)
		if err != nil {
			return nil, err
		}
		r.cache.Add(path, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Engine), nil
}

// Invalidate removes path's cached Engine, forcing the next Get to rebuild
// it via factory.
func (r *Registry) Invalidate(path string) {
	r.cache.Remove(path)
}

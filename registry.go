package vectable

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry is a process-scoped cache of named tables, so large tables are
// loaded once and shared. It is explicit state with clear ownership: callers
// that need it hold a reference, there is no ambient singleton.
//
// Registry is safe for concurrent use. The tables it hands out are not; see
// the package documentation.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
	group  singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
	}
}

// Get returns the cached table under name.
func (r *Registry) Get(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Load returns the cached table under name, or runs loader to produce it.
// Concurrent loads of the same name are deduplicated: loader runs once and
// all callers receive the same table.
func (r *Registry) Load(ctx context.Context, name string, loader func(ctx context.Context) (*Table, error)) (*Table, error) {
	if t, ok := r.Get(name); ok {
		return t, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if t, ok := r.Get(name); ok {
			return t, nil
		}
		t, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		r.Set(name, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Set caches t under name, replacing any previous entry.
func (r *Registry) Set(name string, t *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = t
}

// Remove drops the entry under name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, name)
}

// Names returns the cached table names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

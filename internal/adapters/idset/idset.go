// Package idset tracks external IDs already present in a destination
// collection so adapters can skip duplicate writes locally.
package idset

import (
	"context"
	"sync"
)

// Loader fetches every ID currently in a collection.
type Loader func(ctx context.Context) ([]string, error)

// Set is a lazily loaded set of IDs. It is safe for concurrent use.
type Set struct {
	mu     sync.Mutex
	load   Loader
	ids    map[string]struct{}
	loaded bool
}

// New returns a Set that calls load on first use.
func New(load Loader) *Set {
	return &Set{load: load}
}

func (s *Set) ensure(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	ids, err := s.load(ctx)
	if err != nil {
		return err
	}
	if s.ids == nil {
		s.ids = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.loaded = true
	return nil
}

// Missing returns the IDs not yet in the set, in input order and without
// repeats.
func (s *Set) Missing(ctx context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.ids[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Add records ids as present.
func (s *Set) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Registry holds one Set per collection key (playlist ID, "likes").
type Registry struct {
	mu   sync.Mutex
	sets map[string]*Set
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*Set)}
}

// For returns the Set for key, creating it with load on first request.
func (r *Registry) For(key string, load Loader) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sets[key]; ok {
		return s
	}
	s := New(load)
	r.sets[key] = s
	return s
}

// Forget drops the Set for key, e.g. after the collection was deleted.
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, key)
}

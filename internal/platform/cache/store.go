// Package cache memoizes provider responses for the length of one sync run.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Stats counts lookups since the last Purge.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
	Loads   int64
}

type item[V any] struct {
	value   V
	expires time.Time
}

// Store holds values of one type keyed by request URL. Entries expire after
// ttl; a ttl of zero or less keeps them until Purge. Concurrent loads of the
// same key collapse into one loader call.
type Store[V any] struct {
	mu    sync.Mutex
	items map[string]item[V]
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	hits, misses, loads atomic.Int64
}

func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store[V]) lookup(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if ok && s.ttl > 0 && !s.now().Before(it.expires) {
		delete(s.items, key)
		ok = false
	}
	if !ok {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (s *Store[V]) store(key string, value V) {
	it := item[V]{value: value}
	if s.ttl > 0 {
		it.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
}

// Purge drops every entry and resets the counters, returning the stats
// gathered since the previous purge.
func (s *Store[V]) Purge() Stats {
	s.mu.Lock()
	stats := Stats{
		Entries: len(s.items),
		Hits:    s.hits.Swap(0),
		Misses:  s.misses.Swap(0),
		Loads:   s.loads.Swap(0),
	}
	clear(s.items)
	s.mu.Unlock()
	return stats
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Failed loads are not cached so the next caller retries. A caller whose ctx
// ends stops waiting; the shared load itself runs with the ctx of the caller
// that started it.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	if load == nil {
		return zero, fmt.Errorf("cache: loader is required")
	}
	if key == "" {
		return load(ctx)
	}
	if v, ok := s.lookup(key); ok {
		s.hits.Add(1)
		return v, nil
	}
	s.misses.Add(1)

	ch := s.group.DoChan(key, func() (any, error) {
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		s.loads.Add(1)
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

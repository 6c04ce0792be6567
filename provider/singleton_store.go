package provider

import (
	"sync"
	"sync/atomic"

	"forge/key"
)

// SingletonStore memoises Singleton/Resource provider values per scope,
// guaranteeing at-most-once production under the parallel concurrency
// model (spec.md §5): exactly one producer call per key, every other
// caller blocks on the same in-flight production and observes the same
// result.
type SingletonStore struct {
	mu      sync.Mutex
	entries map[key.Key]*singletonEntry
}

type singletonEntry struct {
	once sync.Once
	done int32
	val  any
	err  error
}

// NewSingletonStore creates an empty store.
func NewSingletonStore() *SingletonStore {
	return &SingletonStore{entries: map[key.Key]*singletonEntry{}}
}

func (s *SingletonStore) entryFor(k key.Key) *singletonEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok {
		e = &singletonEntry{}
		s.entries[k] = e
	}
	return e
}

// Get returns the memoised value for k, if production has already
// completed successfully. It never triggers production itself — that is
// Once's job — so it is safe to use as the cheap fast-path read in a
// double-checked-locking caller.
func (s *SingletonStore) Get(k key.Key) (any, bool) {
	s.mu.Lock()
	e, ok := s.entries[k]
	s.mu.Unlock()
	if !ok || atomic.LoadInt32(&e.done) == 0 {
		return nil, false
	}
	return e.val, e.err == nil
}

// Once runs produce at most once for k across every concurrent caller;
// every caller — the producer and every waiter — observes the same
// (value, error) pair.
func (s *SingletonStore) Once(k key.Key, produce func() (any, error)) (any, error) {
	e := s.entryFor(k)
	e.once.Do(func() {
		e.val, e.err = produce()
		atomic.StoreInt32(&e.done, 1)
	})
	return e.val, e.err
}

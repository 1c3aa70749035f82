// Package memo provides the memoization surface the class model runs on:
// revision-tagged query tables with explicit cycle recovery, and interning
// maps for identity-keyed values.
//
// Queries are pure functions of (key, revision). A table invalidates all of
// its entries when the revision moves. Self-referential queries (a class's
// MRO depending on itself through its bases) are recovered by seeding the
// entry with a bootstrap value and iterating the computation to a fixed
// point instead of recursing forever.
package memo

import (
	"sync"

	"typewalk/internal/observability"
)

// Revision identifies one consistent snapshot of the analyzed sources.
type Revision uint64

const defaultMaxIterations = 16

// Table memoizes one query. Recursive self-lookups during compute return the
// current provisional value; the outermost call re-runs the computation until
// the result stabilizes.
//
// A table supports recursion from a single goroutine at a time; independent
// tables (and independent Models) may be used concurrently.
type Table[K comparable, V any] struct {
	name    string
	initial func(K) V
	equal   func(a, b V) bool
	maxIter int

	mu      sync.Mutex
	rev     Revision
	entries map[K]*entry[V]
}

type entry[V any] struct {
	value      V
	rev        Revision
	inProgress bool
	cycleHit   bool
}

// NewTable creates a memo table. initial produces the bootstrap value handed
// out when a cycle re-enters the key; equal decides fixed-point convergence.
func NewTable[K comparable, V any](name string, initial func(K) V, equal func(a, b V) bool) *Table[K, V] {
	return &Table[K, V]{
		name:    name,
		initial: initial,
		equal:   equal,
		maxIter: defaultMaxIterations,
		entries: make(map[K]*entry[V]),
	}
}

// SetRevision moves the table to a new revision, invalidating every entry
// computed under an older one.
func (t *Table[K, V]) SetRevision(rev Revision) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rev = rev
}

// Get returns the memoized value for key, computing it if needed.
func (t *Table[K, V]) Get(key K, compute func(K) V) V {
	t.mu.Lock()
	e, ok := t.entries[key]
	if ok && e.rev == t.rev {
		if !e.inProgress {
			t.mu.Unlock()
			observability.MemoHits.WithLabelValues(t.name).Inc()
			return e.value
		}
		// Re-entered while computing: hand out the provisional value and let
		// the outer call iterate.
		e.cycleHit = true
		v := e.value
		t.mu.Unlock()
		observability.CycleRecoveries.Inc()
		return v
	}

	e = &entry[V]{
		value:      t.initial(key),
		rev:        t.rev,
		inProgress: true,
	}
	t.entries[key] = e
	t.mu.Unlock()
	observability.MemoMisses.WithLabelValues(t.name).Inc()

	for i := 0; i < t.maxIter; i++ {
		v := compute(key)

		t.mu.Lock()
		if !e.cycleHit || t.equal(v, e.value) {
			e.value = v
			e.inProgress = false
			t.mu.Unlock()
			return v
		}
		// The provisional value was observed mid-cycle and the result
		// changed: publish the refined value and run again.
		e.value = v
		e.cycleHit = false
		t.mu.Unlock()
	}

	// Did not converge within the iteration budget; accept the last value.
	t.mu.Lock()
	v := e.value
	e.inProgress = false
	t.mu.Unlock()
	return v
}

// Len returns the number of entries currently memoized (any revision).
func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Interner deduplicates values by key so that equal inputs yield the same
// identity. Entries live for the process lifetime.
type Interner[K comparable, V any] struct {
	mu     sync.Mutex
	values map[K]V
}

func NewInterner[K comparable, V any]() *Interner[K, V] {
	return &Interner[K, V]{values: make(map[K]V)}
}

// Intern returns the canonical value for key, creating it on first use.
func (i *Interner[K, V]) Intern(key K, create func() V) V {
	i.mu.Lock()
	defer i.mu.Unlock()
	if v, ok := i.values[key]; ok {
		return v
	}
	v := create()
	i.values[key] = v
	return v
}

package locale

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Memo is a concurrency safe factory cache keyed by locale identifier.
// A value is built at most once per key and shared by every caller.
// Successful entries live as long as the Memo; failed builds are not kept.
type Memo[V any] struct {
	build   func(key string) (V, error)
	entries sync.Map // map[string]*memoEntry[V]
	built   atomic.Int64
}

type memoEntry[V any] struct {
	once  sync.Once
	ready atomic.Bool
	value V
	err   error
}

// NewMemo creates a Memo that uses build to construct missing values.
func NewMemo[V any](build func(key string) (V, error)) *Memo[V] {
	return &Memo[V]{build: build}
}

// Get returns the value for key, building it on first use.
func (m *Memo[V]) Get(key string) (V, error) {
	raw, ok := m.entries.Load(key)
	if !ok {
		raw, _ = m.entries.LoadOrStore(key, &memoEntry[V]{})
	}

	entry := raw.(*memoEntry[V])
	entry.once.Do(func() {
		entry.value, entry.err = m.build(key)
		if entry.err == nil {
			m.built.Add(1)
			entry.ready.Store(true)
		}
	})

	if entry.err != nil {
		m.entries.CompareAndDelete(key, entry)
		var zero V
		return zero, entry.err
	}

	return entry.value, nil
}

// Built reports how many values have been constructed.
func (m *Memo[V]) Built() int64 {
	return m.built.Load()
}

// Keys lists the keys holding a constructed value, sorted.
func (m *Memo[V]) Keys() []string {
	var keys []string
	m.entries.Range(func(key, value any) bool {
		if entry, ok := value.(*memoEntry[V]); ok && entry.ready.Load() {
			keys = append(keys, key.(string))
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

package storage

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"sprintlens/internal/cache"
)

// Memory is an in-process cache.Backend. It backs all tests and is the
// fallback store when no Mongo URI is configured, so entries survive only
// for the lifetime of the process.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]cache.Entry
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]cache.Entry),
	}
}

func (m *Memory) Insert(_ context.Context, collection string, docs []cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range docs {
		m.collections[collection] = append(m.collections[collection], copyEntry(d))
	}
	return nil
}

func (m *Memory) Upsert(_ context.Context, collection string, filter cache.Query, doc cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, existing := range docs {
		if matches(existing, filter) {
			docs[i] = copyEntry(doc)
			return nil
		}
	}
	m.collections[collection] = append(docs, copyEntry(doc))
	return nil
}

func (m *Memory) Find(_ context.Context, collection string, filter cache.Query, opts cache.FindOptions) ([]cache.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []cache.Entry
	for _, d := range m.collections[collection] {
		if matches(d, filter) {
			results = append(results, copyEntry(d))
		}
	}

	if opts.Sort != "" {
		sort.SliceStable(results, func(i, j int) bool {
			a, _ := resolve(results[i], opts.Sort)
			b, _ := resolve(results[j], opts.Sort)
			if opts.Descending {
				return compare(a, b) > 0
			}
			return compare(a, b) < 0
		})
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

func (m *Memory) DeleteMany(_ context.Context, collection string, filter cache.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(filter) == 0 {
		delete(m.collections, collection)
		return nil
	}

	var kept []cache.Entry
	for _, d := range m.collections[collection] {
		if !matches(d, filter) {
			kept = append(kept, d)
		}
	}
	m.collections[collection] = kept
	return nil
}

// EnsureUniqueIndex is a no-op: the upsert path already enforces one entry
// per key value, which is the only guarantee the store relies on.
func (m *Memory) EnsureUniqueIndex(context.Context, string, string) error {
	return nil
}

// Count reports the number of stored entries, ignoring TTL. Test helper.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func copyEntry(e cache.Entry) cache.Entry {
	out := make(cache.Entry, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func matches(doc cache.Entry, filter cache.Query) bool {
	for field, cond := range filter {
		val, ok := resolve(doc, field)
		if !ok {
			return false
		}
		if gte, isRange := cond.(cache.GTE); isRange {
			if compare(val, gte.Value) < 0 {
				return false
			}
			continue
		}
		if !equal(val, cond) {
			return false
		}
	}
	return true
}

// resolve walks a dot-path into nested maps.
func resolve(doc cache.Entry, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = map[string]any(doc)
	for _, p := range parts {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			current = v
		case cache.Entry:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}

func equal(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same general kind. Times, numbers and
// strings get real ordering; anything else compares equal.
func compare(a, b any) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

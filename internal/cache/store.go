package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the generic cache engine. It stages, deduplicates, expires and
// announces every derived dataset according to the owning Collection's
// policy. All behavior is data-driven by the Collection descriptor; there is
// one Store per process, not one per dataset.
type Store struct {
	backend  Backend
	notifier *Notifier
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Tests use this to control TTL math.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over the given backend. The notifier may be
// shared with other components; a nil notifier disables notifications.
func NewStore(backend Backend, notifier *Notifier, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		notifier: notifier,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = NewNotifier()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCollection prepares the backing partition for the collection's
// policy. Called once per dataset at process start.
func (s *Store) EnsureCollection(ctx context.Context, col Collection) error {
	if col.UniqueKey == "" {
		return nil
	}
	if err := s.backend.EnsureUniqueIndex(ctx, col.Name, col.UniqueKey); err != nil {
		return fmt.Errorf("ensure index on %s.%s: %w", col.Name, col.UniqueKey, err)
	}
	return nil
}

// Save writes a batch of entries. If the collection is configured with
// ClearBeforeAdd, the whole collection is emptied first. Keyed collections
// upsert per entry; unkeyed collections bulk-insert with no dedup.
func (s *Store) Save(ctx context.Context, col Collection, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("save %s: %w", col.Name, ErrNoData)
	}

	if col.ClearBeforeAdd {
		if err := s.backend.DeleteMany(ctx, col.Name, Query{}); err != nil {
			return fmt.Errorf("clear %s before save: %w", col.Name, err)
		}
	}

	return s.write(ctx, col, entries)
}

// Update is Save with ClearBeforeAdd forced off, and it requires a unique
// key: updating an unkeyed collection has no identity to update against.
func (s *Store) Update(ctx context.Context, col Collection, entries []Entry) error {
	if col.UniqueKey == "" {
		return fmt.Errorf("update %s: %w", col.Name, ErrNoUniqueKey)
	}
	if len(entries) == 0 {
		return fmt.Errorf("update %s: %w", col.Name, ErrNoData)
	}

	return s.write(ctx, col, entries)
}

// write decorates the batch with the system fields and commits it. There is
// no rollback: a mid-batch failure leaves prior entries committed.
func (s *Store) write(ctx context.Context, col Collection, entries []Entry) error {
	now := s.now().UTC()

	decorated := make([]Entry, len(entries))
	for i, e := range entries {
		d := e.clone()
		d[FieldStorageTime] = now
		if col.StorageType != "" {
			d[FieldStorageType] = col.StorageType
		}
		decorated[i] = d
	}

	if col.UniqueKey == "" {
		if err := s.backend.Insert(ctx, col.Name, decorated); err != nil {
			return fmt.Errorf("insert into %s: %w", col.Name, err)
		}
		s.notifier.publish(Event{
			Kind:       EventUpdated,
			Collection: col.Name,
			Count:      len(decorated),
		})
		return nil
	}

	keys := make([]any, 0, len(decorated))
	for _, d := range decorated {
		key, ok := d[col.UniqueKey]
		if !ok {
			return fmt.Errorf("write to %s: entry missing unique key %q", col.Name, col.UniqueKey)
		}
		if err := s.backend.Upsert(ctx, col.Name, Query{col.UniqueKey: key}, d); err != nil {
			return fmt.Errorf("upsert %s[%v=%v]: %w", col.Name, col.UniqueKey, key, err)
		}
		keys = append(keys, key)
	}

	s.notifier.publish(Event{
		Kind:       EventUpdated,
		Collection: col.Name,
		Keys:       keys,
		Count:      len(keys),
	})
	return nil
}

type loadConfig struct {
	sort        string
	descending  bool
	limit       int
	ttlOverride time.Duration
	hasOverride bool
}

// LoadOption adjusts a single Load call.
type LoadOption func(*loadConfig)

// OrderBy sorts the result set by a single field.
func OrderBy(field string, descending bool) LoadOption {
	return func(c *loadConfig) {
		c.sort = field
		c.descending = descending
	}
}

// Limit caps the number of returned entries.
func Limit(n int) LoadOption {
	return func(c *loadConfig) { c.limit = n }
}

// TTLOverride supersedes the collection's configured TTL for this call only.
func TTLOverride(ttl time.Duration) LoadOption {
	return func(c *loadConfig) {
		c.ttlOverride = ttl
		c.hasOverride = true
	}
}

// Load returns the entries matching the caller's filter, freshness-checked
// against the effective TTL. Staleness is a query predicate, not an eviction
// sweep: expired entries stay in storage until overwritten or purged, so
// "is it cached" and "is it fresh" are always one question. An empty result
// is a valid, non-error outcome.
func (s *Store) Load(ctx context.Context, col Collection, query Query, opts ...LoadOption) ([]Entry, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ttl := col.TTL
	if cfg.hasOverride {
		ttl = cfg.ttlOverride
	}

	effective := query.clone()
	if ttl > 0 {
		// Respect an explicit storage_time clause from the caller.
		if _, ok := query[FieldStorageTime]; !ok {
			effective[FieldStorageTime] = GTE{Value: s.now().UTC().Add(-ttl)}
		}
	}
	if col.StorageType != "" {
		effective[FieldStorageType] = col.StorageType
	}

	results, err := s.backend.Find(ctx, col.Name, effective, FindOptions{
		Sort:       cfg.sort,
		Descending: cfg.descending,
		Limit:      cfg.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", col.Name, err)
	}

	if len(results) > 0 {
		s.notifier.publish(Event{
			Kind:        EventLoaded,
			Collection:  col.Name,
			Query:       effective,
			TTLUsed:     ttl,
			StorageTime: results[0].StorageTime(),
			Count:       len(results),
		})
	}

	return results, nil
}

// LoadOne is the single-entity convenience over Load. It returns
// ErrNotFound when nothing fresh matches.
func (s *Store) LoadOne(ctx context.Context, col Collection, query Query, opts ...LoadOption) (Entry, error) {
	results, err := s.Load(ctx, col, query, append(opts, Limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("load one from %s: %w", col.Name, ErrNotFound)
	}
	return results[0], nil
}

// Clear removes every entry from the collection unconditionally.
func (s *Store) Clear(ctx context.Context, col Collection) error {
	if err := s.backend.DeleteMany(ctx, col.Name, Query{}); err != nil {
		return fmt.Errorf("clear %s: %w", col.Name, err)
	}
	return nil
}

package cache

import "time"

// Collection describes one named, typed partition of cache entries and the
// policies that govern writes and reads against it. Policies are static
// configuration, declared once per dataset kind.
type Collection struct {
	// Name identifies the backing partition (Mongo collection name).
	Name string

	// UniqueKey, when set, makes every write an upsert keyed on this field
	// and enforces a uniqueness constraint on it.
	UniqueKey string

	// TTL excludes entries older than now-TTL from reads. Zero means
	// entries never go stale.
	TTL time.Duration

	// ClearBeforeAdd empties the whole collection before each Save. Used
	// for "latest snapshot only" datasets.
	ClearBeforeAdd bool

	// StorageType partitions a shared collection into logical dataset
	// variants. When set, it is stamped on every write and filtered on
	// every read.
	StorageType string
}

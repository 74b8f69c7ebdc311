package fetch

import (
	"context"
	"time"

	"sprintlens/internal/cache"
)

// ResultCache stores arbitrary result documents under caller-supplied keys,
// for callers that want cache semantics without registering a dataset of
// their own. A storage type partitions variants inside the shared
// collection; reads always filter by it.
type ResultCache struct {
	store *cache.Store
}

// NewResultCache wires the shared result-document cache.
func NewResultCache(store *cache.Store) *ResultCache {
	return &ResultCache{store: store}
}

// Put caches a document under key, replacing any previous document with the
// same key.
func (r *ResultCache) Put(ctx context.Context, key string, storageType string, doc map[string]any) error {
	col := Datasets[DatasetResults]
	col.StorageType = storageType

	entry := make(cache.Entry, len(doc)+1)
	for k, v := range doc {
		entry[k] = v
	}
	entry["key"] = key

	return r.store.Save(ctx, col, []cache.Entry{entry})
}

// Get returns the fresh document cached under key, or cache.ErrNotFound.
// A non-zero ttlOverride supersedes the dataset's configured TTL.
func (r *ResultCache) Get(ctx context.Context, key string, storageType string, ttlOverride time.Duration) (cache.Entry, error) {
	col := Datasets[DatasetResults]
	col.StorageType = storageType

	var opts []cache.LoadOption
	if ttlOverride > 0 {
		opts = append(opts, cache.TTLOverride(ttlOverride))
	}

	return r.store.LoadOne(ctx, col, cache.Query{"key": key}, opts...)
}

package cache

import "context"

// FindOptions narrows and orders a Find result set.
type FindOptions struct {
	Sort       string // field to sort by; empty means storage order
	Descending bool
	Limit      int // 0 means unlimited
}

// Backend is the storage collaborator the store writes through. Any store
// offering these primitives (document, or relational with a JSON column)
// satisfies the contract. Uniqueness under concurrent writers relies on the
// backend's own per-document upsert semantics; the store takes no locks.
type Backend interface {
	Insert(ctx context.Context, collection string, docs []Entry) error
	Upsert(ctx context.Context, collection string, filter Query, doc Entry) error
	Find(ctx context.Context, collection string, filter Query, opts FindOptions) ([]Entry, error)
	DeleteMany(ctx context.Context, collection string, filter Query) error
	EnsureUniqueIndex(ctx context.Context, collection string, field string) error
}

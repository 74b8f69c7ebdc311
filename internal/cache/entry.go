package cache

import "time"

// System fields injected by the store at write time. Callers must never set
// these themselves; Save and Update overwrite whatever is present.
const (
	FieldStorageTime = "storage_time"
	FieldStorageType = "storage_type"
)

// Entry is the unit of cached data: a mapping from field names to values.
// Values may be scalars, nested maps or slices.
type Entry map[string]any

// StorageTime returns the write timestamp of the entry, or the zero time if
// the entry has not been through the store yet.
func (e Entry) StorageTime() time.Time {
	if t, ok := e[FieldStorageTime].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// clone returns a shallow copy so that decoration never mutates caller data.
func (e Entry) clone() Entry {
	out := make(Entry, len(e)+2)
	for k, v := range e {
		out[k] = v
	}
	return out
}

package fetch

import (
	"encoding/json"
	"fmt"

	"sprintlens/internal/cache"
)

// toEntry flattens a typed record into a cache entry through its JSON
// form, so the stored shape matches the record's JSON contract exactly.
func toEntry(v any) (cache.Entry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	var entry cache.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, nil
}

// fromEntry is the inverse of toEntry. The system fields are dropped by
// the target type's JSON contract.
func fromEntry[T any](e cache.Entry) (T, error) {
	var out T
	raw, err := json.Marshal(e)
	if err != nil {
		return out, fmt.Errorf("encode cached entry: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode cached entry: %w", err)
	}
	return out, nil
}

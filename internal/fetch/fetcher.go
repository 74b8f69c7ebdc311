package fetch

import (
	"context"
	"errors"
)

// ErrInvalidInput marks an inconsistent or incomplete parameter set.
// Surfaced immediately, never retried.
var ErrInvalidInput = errors.New("invalid fetch parameters")

// Fetcher is the per-dataset controller contract: validate the request, try
// the cache, and on miss pull from the external source, write back and
// return. Fetchers do no retrying; external-source failures pass through
// unmodified.
type Fetcher[T any] interface {
	// Validate fails fast on a bad parameter set.
	Validate() error
	// Cached probes the cache store; ok is false on miss or expiry.
	Cached(ctx context.Context) (result T, ok bool, err error)
	// Refresh pulls from the external source, writes the cache and returns
	// the fresh result.
	Refresh(ctx context.Context) (T, error)
}

// Run drives the fetch sequence. A forced run treats the TTL as already
// expired and goes straight to the source.
func Run[T any](ctx context.Context, f Fetcher[T], force bool) (T, error) {
	var zero T

	if err := f.Validate(); err != nil {
		return zero, err
	}

	if !force {
		result, ok, err := f.Cached(ctx)
		if err != nil {
			return zero, err
		}
		if ok {
			return result, nil
		}
	}

	return f.Refresh(ctx)
}

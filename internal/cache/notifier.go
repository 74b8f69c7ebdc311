package cache

import (
	"time"

	"github.com/rs/zerolog/log"
)

// EventKind discriminates the two cache notification kinds.
type EventKind string

const (
	// EventUpdated is published after every write batch.
	EventUpdated EventKind = "updated"
	// EventLoaded is published after every non-empty read.
	EventLoaded EventKind = "loaded"
)

// Event carries the audit metadata for one cache operation.
type Event struct {
	Kind       EventKind
	Collection string

	// Write metadata. Keys is nil for non-keyed bulk inserts.
	Keys  []any
	Count int

	// Read metadata.
	Query       Query
	TTLUsed     time.Duration
	StorageTime time.Time // storage_time of the first returned entry
}

// Handler receives cache events. Delivery is synchronous and best-effort:
// a slow handler blocks the cache call that triggered it.
type Handler func(Event)

// Notifier is an explicit observer registry for cache events. Handlers are
// registered once at process start; registration is not safe to interleave
// with publishing.
type Notifier struct {
	handlers []Handler
}

// NewNotifier creates an empty notifier. Publishing with no subscribers is
// a no-op.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a handler for all subsequent events.
func (n *Notifier) Subscribe(h Handler) {
	n.handlers = append(n.handlers, h)
}

func (n *Notifier) publish(e Event) {
	for _, h := range n.handlers {
		h(e)
	}
}

// LogHandler returns a handler that writes every cache event to the global
// zerolog logger, for audit trails.
func LogHandler() Handler {
	return func(e Event) {
		evt := log.Debug().
			Str("event", string(e.Kind)).
			Str("collection", e.Collection).
			Int("count", e.Count)

		switch e.Kind {
		case EventUpdated:
			if e.Keys != nil {
				evt = evt.Interface("keys", e.Keys)
			}
		case EventLoaded:
			if e.TTLUsed > 0 {
				evt = evt.Dur("ttl", e.TTLUsed)
			}
			if !e.StorageTime.IsZero() {
				evt = evt.Time("storageTime", e.StorageTime)
			}
		}

		evt.Msg("Cache event")
	}
}

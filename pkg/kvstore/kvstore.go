package kvstore

import "context"

// Event notifies watchers that a key changed in the shared medium. The
// payload carries the new value so watchers can refresh without a follow-up
// read; last writer wins, no merge.
type Event struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Deleted bool   `json:"deleted"`
}

// Store is the key-value persistence port for ancillary storefront state
// (wishlist, recent searches) shared across browser tabs. Watch is the
// explicit replacement for the browser "storage event" mechanism: writes
// made through any handle are observable by every watcher of the key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error

	// Watch returns a channel of change events for key plus a stop function.
	// The channel is closed after stop is called or ctx is done.
	Watch(ctx context.Context, key string) (<-chan Event, func(), error)
}

package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It backs tests and redis-less deployments;
// watchers still receive change events, so cross-handle refresh semantics
// match the redis implementation.
type Memory struct {
	mu       sync.Mutex
	data     map[string]string
	watchers map[string]map[int]chan Event
	nextID   int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]string),
		watchers: make(map[string]map[int]chan Event),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.notifyLocked(Event{Key: key, Value: value})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.notifyLocked(Event{Key: key, Deleted: true})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Watch(ctx context.Context, key string) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	ch := make(chan Event, 16)
	if m.watchers[key] == nil {
		m.watchers[key] = make(map[int]chan Event)
	}
	m.watchers[key][id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			if set, ok := m.watchers[key]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(m.watchers, key)
				}
			}
			m.mu.Unlock()
			close(ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			stop()
		}()
	}

	return ch, stop, nil
}

// notifyLocked fans the event out without blocking a slow watcher; a watcher
// that falls 16 events behind misses intermediate states, which last-writer-wins
// refresh tolerates.
func (m *Memory) notifyLocked(event Event) {
	for _, ch := range m.watchers[event.Key] {
		select {
		case ch <- event:
		default:
		}
	}
}

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	storeredis "github.com/attirely/storefront-backend/pkg/redis"
)

// Redis persists entries in redis and rides pub/sub for change
// notifications, so watchers in other processes (tabs) observe writes.
type Redis struct {
	client *storeredis.Client
}

// NewRedis wraps the shared redis client as a kvstore.Store.
func NewRedis(client *storeredis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.KVKey(key))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.KVKey(key), value, 0); err != nil {
		return err
	}
	return r.publish(ctx, Event{Key: key, Value: value})
}

func (r *Redis) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.KVKey(key)); err != nil {
		return err
	}
	return r.publish(ctx, Event{Key: key, Deleted: true})
}

func (r *Redis) Watch(ctx context.Context, key string) (<-chan Event, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sub, err := r.client.Subscribe(ctx, r.client.ChannelKey(key))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, stop, nil
}

func (r *Redis) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.client.ChannelKey(event.Key), payload)
}

package kvstore

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix = "culturin:kv:"
	redisChannel   = "culturin:kv:changes"
)

// RedisStore keeps values in Redis and fans changes out to every instance
// through a pub/sub channel carrying the changed key.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger

	mu   sync.Mutex
	subs subscribers
}

func NewRedisStore(client *redis.Client, log *zap.Logger) *RedisStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, log: log, subs: newSubscribers()}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return err
	}
	if err := r.client.Publish(ctx, redisChannel, key).Err(); err != nil {
		// value is stored; remote caches catch up on their next change
		r.log.Warn("kvstore publish failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (r *RedisStore) Subscribe(key string, fn func([]byte)) func() {
	r.mu.Lock()
	id := r.subs.add(key, fn)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.subs.remove(key, id)
			r.mu.Unlock()
		})
	}
}

// Listen relays change notifications to local subscribers until ctx is done.
func (r *RedisStore) Listen(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.dispatch(ctx, msg.Payload)
		}
	}
}

func (r *RedisStore) dispatch(ctx context.Context, key string) {
	r.mu.Lock()
	fns := r.subs.snapshot(key)
	r.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	value, err := r.Get(ctx, key)
	if err != nil {
		r.log.Warn("kvstore reload failed", zap.String("key", key), zap.Error(err))
		return
	}
	for _, fn := range fns {
		fn(value)
	}
}

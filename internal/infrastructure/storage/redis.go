package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChangeChannel carries change notifications between instances sharing one Redis
const DefaultChangeChannel = "storage:changes"

type cmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisOptions configures the Redis backend
type RedisOptions struct {
	// TTL applied on every write; zero keeps keys forever
	TTL time.Duration
	// Channel used for cross-instance change notifications
	Channel string
	Logger  logrus.FieldLogger
}

// Redis stores values in Redis and broadcasts writes over pub/sub so that
// watchers in other processes observe them.
type Redis struct {
	store    cmdable
	raw      *redis.Client
	origin   string
	ttl      time.Duration
	channel  string
	logger   logrus.FieldLogger
	watchers *watchers
}

type changeMessage struct {
	Origin  string `json:"origin"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Deleted bool   `json:"deleted,omitempty"`
}

// NewRedis creates a Redis backed storage
func NewRedis(client *redis.Client, opts RedisOptions) *Redis {
	r := newRedis(client, opts)
	r.raw = client
	return r
}

func newRedis(store cmdable, opts RedisOptions) *Redis {
	if opts.Channel == "" {
		opts.Channel = DefaultChangeChannel
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Redis{
		store:    store,
		origin:   uuid.New().String(),
		ttl:      opts.TTL,
		channel:  opts.Channel,
		logger:   opts.Logger,
		watchers: newWatchers(),
	}
}

// Get retrieves the value stored at key
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set replaces the value stored at key and announces the change
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.store.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.watchers.notify(key, value)
	r.publish(ctx, changeMessage{Origin: r.origin, Key: key, Value: value})
	return nil
}

// Delete removes key and announces the change
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.store.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	r.watchers.notify(key, "")
	r.publish(ctx, changeMessage{Origin: r.origin, Key: key, Deleted: true})
	return nil
}

// Watch registers fn for writes to key from this or any other instance
func (r *Redis) Watch(key string, fn func(value string)) func() {
	return r.watchers.add(key, fn)
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.store.Ping(ctx).Err()
}

// Listen relays change notifications published by other instances to local
// watchers until ctx is done.
func (r *Redis) Listen(ctx context.Context) error {
	if r.raw == nil {
		return errors.New("redis storage: listen requires a redis client")
	}

	sub := r.raw.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.dispatch(msg.Payload)
		}
	}
}

func (r *Redis) dispatch(payload string) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.WithError(err).Warn("Discarding malformed storage change message")
		return
	}
	if msg.Origin == r.origin || msg.Key == "" {
		return
	}
	if msg.Deleted {
		r.watchers.notify(msg.Key, "")
		return
	}
	r.watchers.notify(msg.Key, msg.Value)
}

func (r *Redis) publish(ctx context.Context, msg changeMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// Peers miss this change on failure; the value itself is already stored
	if err := r.store.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"key":   msg.Key,
			"error": err,
		}).Warn("Failed to publish storage change")
	}
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix  = "cart:"
	defaultCartTTL = 7 * 24 * time.Hour
)

// RedisRepository stores carts as JSON values in Redis with a sliding TTL.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed cart repository from a redis URL
// (redis://host:port/db).
func NewRedisRepository(url string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisRepository{
		client: redis.NewClient(opts),
		ttl:    defaultCartTTL,
	}, nil
}

// Ping verifies the Redis connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Load returns the cart for key, or an empty cart when none is stored.
func (r *RedisRepository) Load(ctx context.Context, key string) (*Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save writes the cart back, refreshing the TTL. An empty cart is deleted
// instead of stored.
func (r *RedisRepository) Save(ctx context.Context, key string, c *Cart) error {
	if len(c.Items) == 0 {
		return r.Delete(ctx, key)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cart: %w", err)
	}
	return nil
}

// Delete removes the cart for key.
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

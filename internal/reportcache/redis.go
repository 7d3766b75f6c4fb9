package reportcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces report keys.
const KeyPrefix = "memtier:report:"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// TTL expires cached reports; zero keeps them until overwritten.
	TTL time.Duration

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// Redis is a Cache shared between processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: opts.TTL}, nil
}

func key(identity string) string {
	return KeyPrefix + identity
}

func (r *Redis) Get(ctx context.Context, identity string) (string, bool, error) {
	val, err := r.client.Get(ctx, key(identity)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get report: %w", err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, identity, report string) error {
	if err := r.client.Set(ctx, key(identity), report, r.ttl).Err(); err != nil {
		return fmt.Errorf("set report: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

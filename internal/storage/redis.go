package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisPrefix = "price-alerts:"

// Redis stores values as plain Redis strings without expiry
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisOptions holds the Redis connection parameters
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to Redis and checks the connection
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: redisPrefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

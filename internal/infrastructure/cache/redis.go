package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcastillo/reqtx/internal/infrastructure/logging"
)

const (
	// articleListKey is the cache key for the published-article listing.
	articleListKey = "reqtx:articles:published"

	// articleListTTL bounds staleness of the listing cache.
	articleListTTL = 30 * time.Second

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second
)

var (
	ErrRedisNotConnected = errors.New("redis not connected")
	ErrCacheMiss         = errors.New("cache miss")
)

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with the service's cache operations.
type RedisClient struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 50
	opts.MinIdleConns = 5

	client := redis.NewClient(opts)

	rc := &RedisClient{
		client: client,
		logger: logger.WithComponent("redis"),
	}

	return rc, nil
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	r.logger.Info("redis connection established")
	return nil
}

// GetArticleList returns the cached article listing payload.
func (r *RedisClient) GetArticleList(ctx context.Context) ([]byte, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	payload, err := r.client.Get(ctx, articleListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading article list cache: %w", err)
	}
	return payload, nil
}

// SetArticleList stores the article listing payload with a short TTL.
func (r *RedisClient) SetArticleList(ctx context.Context, payload []byte) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}
	if err := r.client.Set(ctx, articleListKey, payload, articleListTTL).Err(); err != nil {
		return fmt.Errorf("writing article list cache: %w", err)
	}
	return nil
}

// InvalidateArticleList drops the listing cache. called after writes.
func (r *RedisClient) InvalidateArticleList(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, articleListKey).Err(); err != nil {
		return fmt.Errorf("invalidating article list cache: %w", err)
	}
	return nil
}

// Close shuts down the redis connection.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/constants"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Occupancy snapshot for the party read path. The value is advisory;
	// the authoritative count lives in the ledger.
	SetOccupancy(ctx context.Context, partyID uuid.UUID, occupancy int, ttl time.Duration) error
	GetOccupancy(ctx context.Context, partyID uuid.UUID) (int, bool, error)
	DelOccupancy(ctx context.Context, partyID uuid.UUID) error

	Client() *redis.Client
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

func (c *redisCache) SetOccupancy(ctx context.Context, partyID uuid.UUID, occupancy int, ttl time.Duration) error {
	return c.client.Set(ctx, constants.RedisKeyOccupancy+partyID.String(), occupancy, ttl).Err()
}

func (c *redisCache) GetOccupancy(ctx context.Context, partyID uuid.UUID) (int, bool, error) {
	val, err := c.client.Get(ctx, constants.RedisKeyOccupancy+partyID.String()).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (c *redisCache) DelOccupancy(ctx context.Context, partyID uuid.UUID) error {
	return c.client.Del(ctx, constants.RedisKeyOccupancy+partyID.String()).Err()
}

func (c *redisCache) Client() *redis.Client {
	return c.client
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

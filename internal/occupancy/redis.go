package occupancy

import (
	"context"
	"fmt"

	"vitrina/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisCounter хранит счётчик посетителей магазина в Redis. Это поток
// реальных входов/выходов, а не производная от бронирований величина.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func occupancyKey(storeID string) string {
	return "occupancy:" + storeID
}

func (r *RedisCounter) CheckIn(ctx context.Context, storeID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Incr(ctx, occupancyKey(storeID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment occupancy: %w", err)
	}
	return val, nil
}

// CheckOut не уводит счётчик ниже нуля: лишний выход просто игнорируется.
func (r *RedisCounter) CheckOut(ctx context.Context, storeID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Decr(ctx, occupancyKey(storeID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to decrement occupancy: %w", err)
	}
	if val < 0 {
		if err := r.client.Incr(ctx, occupancyKey(storeID)).Err(); err != nil {
			return 0, fmt.Errorf("failed to clamp occupancy: %w", err)
		}
		return 0, nil
	}
	return val, nil
}

func (r *RedisCounter) Current(ctx context.Context, storeID string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, occupancyKey(storeID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get occupancy: %w", err)
	}
	return val, nil
}

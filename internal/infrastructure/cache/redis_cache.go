package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
)

const keyPrefix = "comandas:order:"

// RedisOrderCache guarda el OrderResponse serializado en JSON bajo comandas:order:<id>.
type RedisOrderCache struct {
	client *redis.Client
}

func NewRedisOrderCache(addr string, password string, db int) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisOrderCache{client: client}
}

// Key clave Redis de un pedido.
func Key(orderID string) string {
	return keyPrefix + orderID
}

func (c *RedisOrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisOrderCache) Close() error {
	return c.client.Close()
}

func (c *RedisOrderCache) Get(ctx context.Context, orderID string) (*dto.OrderResponse, bool, error) {
	val, err := c.client.Get(ctx, Key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp dto.OrderResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, orderID string, order *dto.OrderResponse, ttl time.Duration) error {
	if order == nil {
		return nil
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(orderID), payload, ttl).Err()
}

func (c *RedisOrderCache) Delete(ctx context.Context, orderID string) error {
	return c.client.Del(ctx, Key(orderID)).Err()
}

// Package cache implementa la cache de pedidos materializados usada por GetOrder.
package cache

import (
	"context"
	"time"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/application/orders"
)

var (
	_ orders.OrderCache = NoopOrderCache{}
	_ orders.OrderCache = (*RedisOrderCache)(nil)
)

// NoopOrderCache nunca guarda nada (REDIS_ADDR vacío).
type NoopOrderCache struct{}

func (NoopOrderCache) Get(context.Context, string) (*dto.OrderResponse, bool, error) {
	return nil, false, nil
}

func (NoopOrderCache) Set(context.Context, string, *dto.OrderResponse, time.Duration) error {
	return nil
}

func (NoopOrderCache) Delete(context.Context, string) error {
	return nil
}

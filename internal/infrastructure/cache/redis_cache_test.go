package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/cache"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "comandas:order:o-1", cache.Key("o-1"))
}

func TestNoopOrderCache(t *testing.T) {
	c := cache.NoopOrderCache{}
	require.NoError(t, c.Set(context.Background(), "o-1", &dto.OrderResponse{ID: "o-1"}, time.Minute))

	got, ok, err := c.Get(context.Background(), "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Delete(context.Background(), "o-1"))
}

func TestRedisOrderCache_SetGetDelete(t *testing.T) {
	addr := os.Getenv("POS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set POS_TEST_REDIS_ADDR to run redis integration test")
	}
	ctx := context.Background()
	c := cache.NewRedisOrderCache(addr, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	id := uuid.NewString()
	in := &dto.OrderResponse{
		ID: id, Date: "2026-05-10T20:00:00Z", Total: decimal.RequireFromString("12.50"), PaymentMethod: "pix",
		Unit:  dto.UnitRef{ID: "u1", Name: "Bar"},
		Lines: []dto.OrderLineResponse{{ID: "l1", ProductID: "p1", ProductName: "Agua", Quantity: 5, UnitPrice: decimal.RequireFromString("2.50"), Subtotal: decimal.RequireFromString("12.50")}},
	}
	require.NoError(t, c.Set(ctx, id, in, time.Minute))

	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.True(t, in.Total.Equal(got.Total))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Agua", got.Lines[0].ProductName)

	require.NoError(t, c.Delete(ctx, id))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

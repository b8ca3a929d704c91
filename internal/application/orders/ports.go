package orders

import (
	"context"
	"time"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
)

// Repos agrupa los repositorios que ve una unidad de trabajo. Dentro de TxRunner.Run
// todos están atados a la misma transacción.
type Repos struct {
	Products  repository.ProductRepository
	Orders    repository.OrderRepository
	Units     repository.UnitRepository
	Terminals repository.TerminalRepository
	Events    repository.EventRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a ella.
// Commit solo si fn devuelve nil; cualquier error (o ctx cancelado) hace Rollback completo.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// OrderCache cache de pedidos materializados para GetOrder. Los errores no son fatales.
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*dto.OrderResponse, bool, error)
	Set(ctx context.Context, orderID string, order *dto.OrderResponse, ttl time.Duration) error
	Delete(ctx context.Context, orderID string) error
}

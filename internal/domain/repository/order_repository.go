package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
)

// OrderFilter filtros de listado. Campos vacíos/nil no filtran.
type OrderFilter struct {
	UnitID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// OrderRepository define el puerto de persistencia para Order y sus líneas.
// Todas las escrituras se ejecutan dentro de la transacción del repositorio recibido.
type OrderRepository interface {
	CreateWithLines(ctx context.Context, order *entity.Order, lines []entity.OrderLine) error
	// ReplaceLines borra las líneas actuales del pedido e inserta lines.
	ReplaceLines(ctx context.Context, orderID string, lines []entity.OrderLine) error
	// Update persiste la cabecera (unidad, terminal, evento, medio de pago, total).
	Update(ctx context.Context, order *entity.Order) error
	DeleteWithLines(ctx context.Context, orderID string) error
	// GetWithLines devuelve (nil, nil) si no existe.
	GetWithLines(ctx context.Context, orderID string) (*entity.Order, error)
	// GetForUpdate como GetWithLines pero bloquea la fila del pedido.
	GetForUpdate(ctx context.Context, orderID string) (*entity.Order, error)
	// List ordena por fecha descendente.
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
}

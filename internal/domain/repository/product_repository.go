package repository

import (
	"context"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
)

// ProductRepository define el puerto de lectura de productos y ajuste de stock (DIP).
// GetForUpdate y AdjustStock solo tienen sentido con un repositorio atado a una transacción.
type ProductRepository interface {
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// GetForUpdate lee precio y stock bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// AdjustStock aplica delta con signo y devuelve el stock resultante.
	// Falla con domain.ErrInsufficientStock si el resultado sería negativo (no aplica nada).
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

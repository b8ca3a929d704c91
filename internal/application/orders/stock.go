package orders

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
)

// LineInput línea solicitada por el caller: producto y cantidad (> 0).
type LineInput struct {
	ProductID string
	Quantity  int
}

// MaxLineQuantity tope de cantidad por línea y de demanda por producto: el máximo de una
// columna INTEGER de PostgreSQL (quantity y stock).
const MaxLineQuantity = math.MaxInt32

// validateLines aplica las precondiciones de líneas antes de abrir la transacción y devuelve la
// demanda por producto: dos líneas del mismo producto compiten por el mismo stock.
func validateLines(lines []LineInput) (map[string]int, error) {
	if len(lines) == 0 {
		return nil, &domain.InvalidLineError{Index: 0, Reason: "el pedido requiere al menos una línea"}
	}
	demand := make(map[string]int, len(lines))
	for i, l := range lines {
		if l.ProductID == "" {
			return nil, &domain.InvalidLineError{Index: i, Reason: "product_id requerido"}
		}
		if l.Quantity <= 0 {
			return nil, &domain.InvalidLineError{Index: i, ProductID: l.ProductID, Reason: "la cantidad debe ser mayor que cero"}
		}
		if l.Quantity > MaxLineQuantity {
			return nil, &domain.InvalidLineError{Index: i, ProductID: l.ProductID, Reason: fmt.Sprintf("la cantidad supera el máximo de %d", MaxLineQuantity)}
		}
		// Ambos sumandos <= MaxInt32: la suma cabe en int y no puede dar la vuelta.
		if demand[l.ProductID]+l.Quantity > MaxLineQuantity {
			return nil, &domain.InvalidLineError{Index: i, ProductID: l.ProductID, Reason: fmt.Sprintf("la cantidad total del producto supera el máximo de %d", MaxLineQuantity)}
		}
		demand[l.ProductID] += l.Quantity
	}
	return demand, nil
}

// moveStock es el único camino por el que el motor toca stock. released son las cantidades
// que se devuelven (líneas anteriores del pedido) y demand las que se descuentan.
//
//  1. Bloquea (SELECT FOR UPDATE) cada producto involucrado en orden ascendente de ID,
//     así dos pedidos concurrentes nunca se bloquean en orden cruzado.
//  2. Valida toda la demanda contra stock + released antes de mutar nada.
//  3. Aplica un único delta neto por producto con AdjustStock (decrementa-o-falla).
//
// Devuelve los productos bloqueados (estado previo al ajuste) para tomar la foto de precio.
func moveStock(ctx context.Context, products repository.ProductRepository, released, demand map[string]int) (map[string]*entity.Product, error) {
	ids := make([]string, 0, len(released)+len(demand))
	for id := range released {
		ids = append(ids, id)
	}
	for id := range demand {
		if _, dup := released[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	locked := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		p, err := products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			if _, needed := demand[id]; needed {
				return nil, &domain.ProductNotFoundError{ProductID: id}
			}
			// Producto eliminado después de la venta: no hay stock que devolver.
			continue
		}
		locked[id] = p
	}

	for _, id := range ids {
		requested, needed := demand[id]
		if !needed {
			continue
		}
		p := locked[id]
		if !p.Available {
			return nil, &domain.ProductUnavailableError{ProductID: id}
		}
		if available := p.Stock + released[id]; available < requested {
			return nil, &domain.InsufficientStockError{ProductID: id, Available: available, Requested: requested}
		}
	}

	for _, id := range ids {
		if locked[id] == nil {
			continue
		}
		delta := released[id] - demand[id]
		if delta == 0 {
			continue
		}
		if _, err := products.AdjustStock(ctx, id, delta); err != nil {
			return nil, fmt.Errorf("ajustar stock de %s: %w", id, err)
		}
	}
	return locked, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
)

// CatalogRepo escrituras de catálogo (unidades, terminales, eventos, categorías, productos).
// El motor de pedidos no las usa; las usa cmd/seed y los tests de integración.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func (r *CatalogRepo) UpsertUnit(ctx context.Context, u *entity.Unit) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO units (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		u.ID, u.Name, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert unit: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpsertTerminal(ctx context.Context, t *entity.Terminal) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO terminals (id, unit_id, name, serial_number) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET unit_id = EXCLUDED.unit_id, name = EXCLUDED.name, serial_number = EXCLUDED.serial_number`,
		t.ID, t.UnitID, t.Name, t.SerialNumber)
	if err != nil {
		return fmt.Errorf("upsert terminal: %w", err)
	}
	return nil
}

func (r *CatalogRepo) UpsertEvent(ctx context.Context, e *entity.Event) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO events (id, unit_id, name, starts_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET unit_id = EXCLUDED.unit_id, name = EXCLUDED.name, starts_at = EXCLUDED.starts_at`,
		e.ID, e.UnitID, e.Name, e.StartsAt)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// UpsertCategory devuelve el ID efectivo: si ya existe una categoría con ese nombre en la unidad, el suyo.
func (r *CatalogRepo) UpsertCategory(ctx context.Context, c *entity.Category) (string, error) {
	var id string
	err := r.q.QueryRow(ctx, `
		INSERT INTO categories (id, unit_id, name, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (unit_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		c.ID, c.UnitID, c.Name, c.CreatedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert category: %w", err)
	}
	return id, nil
}

// UpsertProduct crea o actualiza el producto, incluido el stock (carga inicial de inventario).
func (r *CatalogRepo) UpsertProduct(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id, name = EXCLUDED.name,
			purchase_price = EXCLUDED.purchase_price, sale_price = EXCLUDED.sale_price,
			available = EXCLUDED.available, stock = EXCLUDED.stock, updated_at = EXCLUDED.updated_at`,
		p.ID, p.UnitID, nullIfEmpty(p.CategoryID), p.Name, p.PurchasePrice, p.SalePrice,
		p.Available, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

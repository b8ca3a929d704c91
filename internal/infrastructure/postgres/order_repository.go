package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, unit_id, terminal_id, event_id, payment_method, total, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		o                   entity.Order
		terminalID, eventID *string
		method              string
	)
	if err := row.Scan(&o.ID, &o.UnitID, &terminalID, &eventID, &method, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.TerminalID = deref(terminalID)
	o.EventID = deref(eventID)
	o.PaymentMethod = entity.PaymentMethod(method)
	return &o, nil
}

// CreateWithLines inserta cabecera y líneas. Debe llamarse dentro de una transacción.
func (r *OrderRepo) CreateWithLines(ctx context.Context, order *entity.Order, lines []entity.OrderLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.UnitID, nullIfEmpty(order.TerminalID), nullIfEmpty(order.EventID),
		string(order.PaymentMethod), order.Total, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s already exists: %w", order.ID, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert order: referencia eliminada: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return r.insertLines(ctx, order.ID, lines)
}

// insertLines envía todas las líneas en un único batch; position conserva el orden de entrada.
func (r *OrderRepo) insertLines(ctx context.Context, orderID string, lines []entity.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`
			INSERT INTO order_lines (id, order_id, product_id, position, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, orderID, l.ProductID, i, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	br := r.q.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

// ReplaceLines borra las líneas actuales e inserta las nuevas.
func (r *OrderRepo) ReplaceLines(ctx context.Context, orderID string, lines []entity.OrderLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	return r.insertLines(ctx, orderID, lines)
}

// Update persiste la cabecera.
func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders
		SET unit_id = $2, terminal_id = $3, event_id = $4, payment_method = $5, total = $6, updated_at = $7
		WHERE id = $1`,
		order.ID, order.UnitID, nullIfEmpty(order.TerminalID), nullIfEmpty(order.EventID),
		string(order.PaymentMethod), order.Total, order.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("update order: referencia eliminada: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.OrderNotFoundError{OrderID: order.ID}
	}
	return nil
}

// DeleteWithLines elimina líneas y cabecera.
func (r *OrderRepo) DeleteWithLines(ctx context.Context, orderID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// GetWithLines obtiene el pedido con sus líneas. (nil, nil) si no existe.
func (r *OrderRepo) GetWithLines(ctx context.Context, orderID string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
}

// GetForUpdate como GetWithLines pero bloquea la fila del pedido: dos modificaciones del mismo
// pedido se ejecutan una detrás de otra.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID)
}

func (r *OrderRepo) get(ctx context.Context, query, orderID string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.attachLines(ctx, []*entity.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List filtra por unidad y rango de fechas (inclusive), fecha descendente.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var (
		conds []string
		args  []any
	)
	if f.UnitID != "" {
		args = append(args, f.UnitID)
		conds = append(conds, fmt.Sprintf("unit_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if err := r.attachLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// attachLines carga las líneas de todos los pedidos con una sola consulta.
func (r *OrderRepo) attachLines(ctx context.Context, list []*entity.Order) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Order, len(list))
	ids := make([]string, 0, len(list))
	for _, o := range list {
		o.Lines = make([]entity.OrderLine, 0)
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_lines WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if o := byID[l.OrderID]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
)

var (
	_ repository.UnitRepository     = (*UnitRepo)(nil)
	_ repository.TerminalRepository = (*TerminalRepo)(nil)
	_ repository.EventRepository    = (*EventRepo)(nil)
)

// byIDs ejecuta query con $1 = ids y arma el mapa por ID.
func byIDs[T any](ctx context.Context, q Querier, query string, ids []string, scan func(pgx.Row) (*T, string, error)) (map[string]*T, error) {
	out := make(map[string]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, id, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, rows.Err()
}

// UnitRepo lectura de unidades.
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador.
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

func scanUnit(row pgx.Row) (*entity.Unit, string, error) {
	var u entity.Unit
	err := row.Scan(&u.ID, &u.Name, &u.CreatedAt)
	return &u, u.ID, err
}

func (r *UnitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return m[id], nil
}

func (r *UnitRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Unit, error) {
	m, err := byIDs(ctx, r.q, `SELECT id, name, created_at FROM units WHERE id = ANY($1)`, ids, scanUnit)
	if err != nil {
		return nil, fmt.Errorf("get units: %w", err)
	}
	return m, nil
}

// TerminalRepo lectura de terminales.
type TerminalRepo struct {
	q Querier
}

// NewTerminalRepository construye el adaptador.
func NewTerminalRepository(q Querier) *TerminalRepo {
	return &TerminalRepo{q: q}
}

func scanTerminal(row pgx.Row) (*entity.Terminal, string, error) {
	var t entity.Terminal
	err := row.Scan(&t.ID, &t.UnitID, &t.Name, &t.SerialNumber)
	return &t, t.ID, err
}

func (r *TerminalRepo) GetByID(ctx context.Context, id string) (*entity.Terminal, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return m[id], nil
}

func (r *TerminalRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Terminal, error) {
	m, err := byIDs(ctx, r.q, `SELECT id, unit_id, name, serial_number FROM terminals WHERE id = ANY($1)`, ids, scanTerminal)
	if err != nil {
		return nil, fmt.Errorf("get terminals: %w", err)
	}
	return m, nil
}

// EventRepo lectura de eventos.
type EventRepo struct {
	q Querier
}

// NewEventRepository construye el adaptador.
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

func scanEvent(row pgx.Row) (*entity.Event, string, error) {
	var e entity.Event
	err := row.Scan(&e.ID, &e.UnitID, &e.Name, &e.StartsAt)
	return &e, e.ID, err
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return m[id], nil
}

func (r *EventRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Event, error) {
	m, err := byIDs(ctx, r.q, `SELECT id, unit_id, name, starts_at FROM events WHERE id = ANY($1)`, ids, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	return m, nil
}

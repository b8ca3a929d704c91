package repository

import (
	"context"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
)

// UnitRepository lectura de unidades (el CRUD es externo al motor).
type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Unit, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Unit, error)
}

// TerminalRepository lectura de terminales de cobro.
type TerminalRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Terminal, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Terminal, error)
}

// EventRepository lectura de eventos.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Event, error)
}

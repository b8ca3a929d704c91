package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Comandas-api/internal/application/orders"
	"github.com/jhoicas/Comandas-api/internal/domain"
)

var _ orders.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// NewRepos arma los repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) orders.Repos {
	return orders.Repos{
		Products:  NewProductRepository(q),
		Orders:    NewOrderRepository(q),
		Units:     NewUnitRepository(q),
		Terminals: NewTerminalRepository(q),
		Events:    NewEventRepository(q),
	}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit
// solo si fn devuelve nil. Los bloqueos de fila (FOR UPDATE) se liberan al terminar la tx.
func (r *TxRunner) Run(ctx context.Context, fn func(repos orders.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.NewStorageError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("commit transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("commit transaction", err)
	}
	return nil
}

// Package memory implementa los repositorios del motor de pedidos en memoria. Se usa en
// desarrollo (STORE_DRIVER=memory) y en los tests del caso de uso.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/Comandas-api/internal/application/orders"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
)

// Store guarda el estado bajo un único RWMutex. Run toma el lock de escritura durante toda la
// unidad de trabajo, así que las transacciones quedan serializadas.
type Store struct {
	mu         sync.RWMutex
	units      map[string]entity.Unit
	terminals  map[string]entity.Terminal
	events     map[string]entity.Event
	categories map[string]entity.Category
	products   map[string]entity.Product
	orders     map[string]entity.Order
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		units:      make(map[string]entity.Unit),
		terminals:  make(map[string]entity.Terminal),
		events:     make(map[string]entity.Event),
		categories: make(map[string]entity.Category),
		products:   make(map[string]entity.Product),
		orders:     make(map[string]entity.Order),
	}
}

type snapshot struct {
	products map[string]entity.Product
	orders   map[string]entity.Order
}

// Los pedidos solo cambian por reemplazo completo, así que basta copiar el mapa.
func (s *Store) snapshot() snapshot {
	return snapshot{products: maps.Clone(s.products), orders: maps.Clone(s.orders)}
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.orders = snap.orders
}

// Repos devuelve repositorios fuera de transacción (lecturas con RLock).
func (s *Store) Repos() orders.Repos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) orders.Repos {
	return orders.Repos{
		Products:  &productRepo{s: s, inTx: inTx},
		Orders:    &orderRepo{s: s, inTx: inTx},
		Units:     &unitRepo{s: s, inTx: inTx},
		Terminals: &terminalRepo{s: s, inTx: inTx},
		Events:    &eventRepo{s: s, inTx: inTx},
	}
}

// TxRunner ejecuta unidades de trabajo sobre el Store con rollback por snapshot.
type TxRunner struct {
	s *Store
}

// NewTxRunner crea el runner de transacciones en memoria.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run serializa fn con el lock de escritura. Si fn falla o ctx se cancela durante fn, el
// estado vuelve al snapshot tomado al inicio.
func (r *TxRunner) Run(ctx context.Context, fn func(repos orders.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("begin", err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.snapshot()
	if err := fn(r.s.repos(true)); err != nil {
		r.s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		r.s.restore(snap)
		return domain.NewStorageError("commit", err)
	}
	return nil
}

// read ejecuta fn con RLock salvo que el repo esté dentro de Run (que ya tiene el lock).
func (s *Store) read(inTx bool, fn func()) {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(inTx bool, fn func()) {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

// Seed

// PutUnit inserta o reemplaza una unidad.
func (s *Store) PutUnit(u entity.Unit) {
	s.write(false, func() { s.units[u.ID] = u })
}

// PutTerminal inserta o reemplaza una terminal.
func (s *Store) PutTerminal(t entity.Terminal) {
	s.write(false, func() { s.terminals[t.ID] = t })
}

// PutEvent inserta o reemplaza un evento.
func (s *Store) PutEvent(e entity.Event) {
	s.write(false, func() { s.events[e.ID] = e })
}

// PutCategory inserta o reemplaza una categoría.
func (s *Store) PutCategory(c entity.Category) {
	s.write(false, func() { s.categories[c.ID] = c })
}

// PutProduct inserta o reemplaza un producto. Falla si la categoría indicada no existe.
func (s *Store) PutProduct(p entity.Product) error {
	var err error
	s.write(false, func() {
		if p.CategoryID != "" {
			if _, ok := s.categories[p.CategoryID]; !ok {
				err = &domain.ReferenceNotFoundError{Entity: "category", ID: p.CategoryID}
				return
			}
		}
		if p.Stock < 0 {
			err = domain.ErrInvalidInput
			return
		}
		s.products[p.ID] = p
	})
	return err
}

// DeleteProduct elimina un producto del catálogo (las líneas que lo referencian quedan).
func (s *Store) DeleteProduct(id string) {
	s.write(false, func() { delete(s.products, id) })
}

// Stock devuelve el stock actual de un producto (0, false si no existe).
func (s *Store) Stock(id string) (int, bool) {
	var (
		stock int
		ok    bool
	)
	s.read(false, func() {
		var p entity.Product
		p, ok = s.products[id]
		stock = p.Stock
	})
	return stock, ok
}

// OrderCount número de pedidos persistidos.
func (s *Store) OrderCount() int {
	var n int
	s.read(false, func() { n = len(s.orders) })
	return n
}

// Products

type productRepo struct {
	s    *Store
	inTx bool
}

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Product
	r.s.read(r.inTx, func() {
		if p, ok := r.s.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Product, len(ids))
	r.s.read(r.inTx, func() {
		for _, id := range ids {
			if p, ok := r.s.products[id]; ok {
				out[id] = &p
			}
		}
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID: el lock de Run ya excluye a los demás.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var (
		stock int
		err   error
	)
	r.s.write(r.inTx, func() {
		p, ok := r.s.products[id]
		if !ok {
			err = &domain.ProductNotFoundError{ProductID: id}
			return
		}
		if p.Stock+delta < 0 {
			err = &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
			return
		}
		p.Stock += delta
		p.UpdatedAt = time.Now().UTC()
		r.s.products[id] = p
		stock = p.Stock
	})
	return stock, err
}

// Orders

type orderRepo struct {
	s    *Store
	inTx bool
}

var _ repository.OrderRepository = (*orderRepo)(nil)

func cloneOrder(o entity.Order) *entity.Order {
	o.Lines = slices.Clone(o.Lines)
	return &o
}

func (r *orderRepo) CreateWithLines(ctx context.Context, order *entity.Order, lines []entity.OrderLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.s.write(r.inTx, func() {
		if _, dup := r.s.orders[order.ID]; dup {
			err = domain.ErrConflict
			return
		}
		o := *order
		o.Lines = slices.Clone(lines)
		r.s.orders[o.ID] = o
	})
	return err
}

func (r *orderRepo) ReplaceLines(ctx context.Context, orderID string, lines []entity.OrderLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.s.write(r.inTx, func() {
		o, ok := r.s.orders[orderID]
		if !ok {
			err = &domain.OrderNotFoundError{OrderID: orderID}
			return
		}
		o.Lines = slices.Clone(lines)
		r.s.orders[orderID] = o
	})
	return err
}

func (r *orderRepo) Update(ctx context.Context, order *entity.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var err error
	r.s.write(r.inTx, func() {
		o, ok := r.s.orders[order.ID]
		if !ok {
			err = &domain.OrderNotFoundError{OrderID: order.ID}
			return
		}
		o.UnitID = order.UnitID
		o.TerminalID = order.TerminalID
		o.EventID = order.EventID
		o.PaymentMethod = order.PaymentMethod
		o.Total = order.Total
		o.UpdatedAt = order.UpdatedAt
		r.s.orders[order.ID] = o
	})
	return err
}

func (r *orderRepo) DeleteWithLines(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.write(r.inTx, func() { delete(r.s.orders, orderID) })
	return nil
}

func (r *orderRepo) GetWithLines(ctx context.Context, orderID string) (*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Order
	r.s.read(r.inTx, func() {
		if o, ok := r.s.orders[orderID]; ok {
			out = cloneOrder(o)
		}
	})
	return out, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, orderID string) (*entity.Order, error) {
	return r.GetWithLines(ctx, orderID)
}

func (r *orderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.Order
	r.s.read(r.inTx, func() {
		for _, o := range r.s.orders {
			if f.UnitID != "" && o.UnitID != f.UnitID {
				continue
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && o.CreatedAt.After(*f.To) {
				continue
			}
			out = append(out, cloneOrder(o))
		}
	})
	slices.SortFunc(out, func(a, b *entity.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if f.Offset >= len(out) {
		return []*entity.Order{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Units, terminales y eventos

type unitRepo struct {
	s    *Store
	inTx bool
}

func (r *unitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	return m[id], err
}

func (r *unitRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Unit, len(ids))
	r.s.read(r.inTx, func() { pick(r.s.units, ids, out) })
	return out, nil
}

type terminalRepo struct {
	s    *Store
	inTx bool
}

func (r *terminalRepo) GetByID(ctx context.Context, id string) (*entity.Terminal, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	return m[id], err
}

func (r *terminalRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Terminal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Terminal, len(ids))
	r.s.read(r.inTx, func() { pick(r.s.terminals, ids, out) })
	return out, nil
}

type eventRepo struct {
	s    *Store
	inTx bool
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	m, err := r.GetByIDs(ctx, []string{id})
	return m[id], err
}

func (r *eventRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Event, len(ids))
	r.s.read(r.inTx, func() { pick(r.s.events, ids, out) })
	return out, nil
}

func pick[V any](src map[string]V, ids []string, dst map[string]*V) {
	for _, id := range ids {
		if v, ok := src[id]; ok {
			dst[id] = &v
		}
	}
}

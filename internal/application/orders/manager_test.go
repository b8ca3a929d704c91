package orders_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/application/orders"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	unitBar    = "unit-bar"
	unitSalon  = "unit-salon"
	termBar    = "term-bar"
	termSalon  = "term-salon"
	eventBar   = "event-bar"
	prodCerv   = "prod-cerveza"
	prodAgua   = "prod-agua"
	prodVino   = "prod-vino"
	prodBaja   = "prod-baja"
	catBebidas = "cat-bebidas"
)

type fixture struct {
	store   *memory.Store
	manager *orders.OrderManager
	query   *orders.QueryService
	cache   *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutUnit(entity.Unit{ID: unitBar, Name: "Bar Centro"})
	store.PutUnit(entity.Unit{ID: unitSalon, Name: "Salón Norte"})
	store.PutTerminal(entity.Terminal{ID: termBar, UnitID: unitBar, Name: "Caja 1", SerialNumber: "SN-001"})
	store.PutTerminal(entity.Terminal{ID: termSalon, UnitID: unitSalon, Name: "Caja Salón", SerialNumber: "SN-900"})
	store.PutEvent(entity.Event{ID: eventBar, UnitID: unitBar, Name: "Noche de jazz", StartsAt: time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)})
	store.PutCategory(entity.Category{ID: catBebidas, UnitID: unitBar, Name: "Bebidas"})

	for _, p := range []entity.Product{
		{ID: prodCerv, UnitID: unitBar, CategoryID: catBebidas, Name: "Cerveza", SalePrice: money("5.00"), Available: true, Stock: 10},
		{ID: prodAgua, UnitID: unitBar, CategoryID: catBebidas, Name: "Agua", SalePrice: money("2.50"), Available: true, Stock: 5},
		{ID: prodVino, UnitID: unitBar, CategoryID: catBebidas, Name: "Vino", SalePrice: money("29.99"), Available: true, Stock: 3},
		{ID: prodBaja, UnitID: unitBar, Name: "Sidra", SalePrice: money("4.00"), Available: false, Stock: 10},
	} {
		require.NoError(t, store.PutProduct(p))
	}

	cache := newFakeCache()
	return &fixture{
		store:   store,
		manager: orders.NewOrderManager(memory.NewTxRunner(store), cache, nil),
		query:   orders.NewQueryService(store.Repos(), cache, time.Minute, nil),
		cache:   cache,
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "esperado %s, obtenido %s", want, got.String())
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	s, ok := f.store.Stock(productID)
	require.True(t, ok, "el producto %s debe existir", productID)
	return s
}

func (f *fixture) create(t *testing.T, lines ...orders.LineInput) *dto.OrderResponse {
	t.Helper()
	out, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID:        unitBar,
		PaymentMethod: "cash",
		Lines:         lines,
	})
	require.NoError(t, err)
	return out
}

func line(productID string, qty int) orders.LineInput {
	return orders.LineInput{ProductID: productID, Quantity: qty}
}

func linesPtr(lines ...orders.LineInput) *[]orders.LineInput {
	return &lines
}

func strPtr(s string) *string { return &s }

// ──────────────────────────────────────────────────────────────────────────────
// CreateOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_DescuentaStockYCalculaTotal(t *testing.T) {
	f := newFixture(t)

	out := f.create(t, line(prodCerv, 3))

	assertMoney(t, "15.00", out.Total)
	assert.Equal(t, 7, f.stock(t, prodCerv))
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "Cerveza", out.Lines[0].ProductName)
	assertMoney(t, "5.00", out.Lines[0].UnitPrice)
	assertMoney(t, "15.00", out.Lines[0].Subtotal)
	assert.Equal(t, "Bar Centro", out.Unit.Name)
	assert.Nil(t, out.Terminal)
	assert.Nil(t, out.Event)
}

func TestCreateOrder_StockInsuficienteNoModificaNada(t *testing.T) {
	f := newFixture(t)
	f.create(t, line(prodCerv, 8)) // deja stock 2

	_, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 3)},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, prodCerv, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.stock(t, prodCerv))
	assert.Equal(t, 1, f.store.OrderCount())
}

func TestCreateOrder_AtomicoSiUnaLineaFalla(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, PaymentMethod: "credit",
		Lines: []orders.LineInput{line(prodCerv, 2), line(prodAgua, 99)},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, f.stock(t, prodCerv), "la primera línea no debe descontar stock")
	assert.Equal(t, 5, f.stock(t, prodAgua))
	assert.Zero(t, f.store.OrderCount())
}

func TestCreateOrder_LineasDuplicadasCompitenPorElMismoStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, PaymentMethod: "cash",
		Lines: []orders.LineInput{line(prodAgua, 3), line(prodAgua, 3)},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, f.stock(t, prodAgua))

	out := f.create(t, line(prodAgua, 2), line(prodAgua, 3))
	assert.Len(t, out.Lines, 2, "las líneas se guardan tal como llegan")
	assertMoney(t, "12.50", out.Total)
	assert.Zero(t, f.stock(t, prodAgua))
}

func TestCreateOrder_CantidadesFueraDeRango(t *testing.T) {
	tests := []struct {
		name  string
		lines []orders.LineInput
		index int
	}{
		{
			name:  "una línea por encima del máximo",
			lines: []orders.LineInput{line(prodCerv, orders.MaxLineQuantity+1)},
			index: 0,
		},
		{
			name:  "suma que daría la vuelta",
			lines: []orders.LineInput{line(prodCerv, math.MaxInt), line(prodCerv, math.MaxInt), line(prodCerv, 2)},
			index: 0,
		},
		{
			name:  "suma por producto por encima del máximo",
			lines: []orders.LineInput{line(prodAgua, 1), line(prodCerv, orders.MaxLineQuantity), line(prodCerv, 1)},
			index: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			out, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
				UnitID: unitBar, PaymentMethod: "cash", Lines: tt.lines,
			})

			assert.Nil(t, out)
			var lineErr *domain.InvalidLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tt.index, lineErr.Index)
			assert.True(t, domain.IsBusinessError(err))
			assert.Zero(t, f.store.OrderCount())
			assert.Equal(t, 10, f.stock(t, prodCerv))
			assert.Equal(t, 5, f.stock(t, prodAgua))
		})
	}
}

func TestUpdateOrder_CantidadFueraDeRangoConservaElPedido(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 2))

	_, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodCerv, orders.MaxLineQuantity), line(prodCerv, orders.MaxLineQuantity)),
	})

	var lineErr *domain.InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Index)
	assert.Equal(t, 8, f.stock(t, prodCerv))
	got, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestCreateOrder_TotalConVariasLineas(t *testing.T) {
	f := newFixture(t)

	out := f.create(t, line(prodVino, 2), line(prodAgua, 1))

	assertMoney(t, "62.48", out.Total)
	assert.Equal(t, 1, f.stock(t, prodVino))
	assert.Equal(t, 4, f.stock(t, prodAgua))
}

func TestCreateOrder_FotoDelPrecio(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 2))

	require.NoError(t, f.store.PutProduct(entity.Product{
		ID: prodCerv, UnitID: unitBar, CategoryID: catBebidas, Name: "Cerveza", SalePrice: money("7.00"), Available: true, Stock: 8,
	}))

	got, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assertMoney(t, "5.00", got.Lines[0].UnitPrice)
	assertMoney(t, "10.00", got.Total)
}

func TestCreateOrder_ConReferenciasMaterializadas(t *testing.T) {
	f := newFixture(t)

	out, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, TerminalID: termBar, EventID: eventBar, PaymentMethod: " PIX ",
		Lines: []orders.LineInput{line(prodCerv, 1)},
	})

	require.NoError(t, err)
	assert.Equal(t, "pix", out.PaymentMethod)
	require.NotNil(t, out.Terminal)
	assert.Equal(t, "SN-001", out.Terminal.SerialNumber)
	require.NotNil(t, out.Event)
	assert.Equal(t, "Noche de jazz", out.Event.Name)
}

func TestCreateOrder_Rechazos(t *testing.T) {
	tests := []struct {
		name   string
		in     orders.CreateOrderInput
		target error
	}{
		{
			name:   "sin líneas",
			in:     orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cash"},
			target: domain.ErrInvalidInput,
		},
		{
			name:   "cantidad cero",
			in:     orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 0)}},
			target: domain.ErrInvalidInput,
		},
		{
			name:   "medio de pago desconocido",
			in:     orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cheque", Lines: []orders.LineInput{line(prodCerv, 1)}},
			target: domain.ErrInvalidInput,
		},
		{
			name:   "producto inexistente",
			in:     orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line("no-existe", 1)}},
			target: domain.ErrNotFound,
		},
		{
			name:   "unidad inexistente",
			in:     orders.CreateOrderInput{UnitID: "unit-x", PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)}},
			target: domain.ErrNotFound,
		},
		{
			name:   "terminal de otra unidad",
			in:     orders.CreateOrderInput{UnitID: unitBar, TerminalID: termSalon, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)}},
			target: domain.ErrNotFound,
		},
		{
			name:   "producto no disponible",
			in:     orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodBaja, 1)}},
			target: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			out, err := f.manager.CreateOrder(context.Background(), tt.in)

			assert.Nil(t, out)
			require.ErrorIs(t, err, tt.target)
			assert.True(t, domain.IsBusinessError(err))
			assert.Zero(t, f.store.OrderCount())
			assert.Equal(t, 10, f.stock(t, prodCerv))
		})
	}
}

func TestCreateOrder_TerminalDeOtraUnidadIndicaReferencia(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, TerminalID: termSalon, PaymentMethod: "debit", Lines: []orders.LineInput{line(prodCerv, 1)},
	})

	var refErr *domain.ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "terminal", refErr.Entity)
	assert.Equal(t, termSalon, refErr.ID)
}

func TestCreateOrder_ContextoCanceladoEsErrorDeAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.CreateOrder(ctx, orders.CreateOrderInput{
		UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)},
	})

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsBusinessError(err))
	assert.Equal(t, 10, f.stock(t, prodCerv))
}

func TestCreateOrder_ConcurrenciaSinSobreventa(t *testing.T) {
	f := newFixture(t)
	const buyers = 25

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
				UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)},
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(buyers-10), rejected.Load())
	assert.Zero(t, f.stock(t, prodCerv))
	assert.Equal(t, 10, f.store.OrderCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateOrder_ReemplazaLineasDevolviendoStock(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 3))
	require.Equal(t, 7, f.stock(t, prodCerv))

	out, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodCerv, 1)),
	})

	require.NoError(t, err)
	assert.Equal(t, 9, f.stock(t, prodCerv))
	assertMoney(t, "5.00", out.Total)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, 1, out.Lines[0].Quantity)
}

// Las cantidades de las líneas reemplazadas cuentan como disponibles al validar las nuevas.
// Sin esa devolución, reenviar el mismo pedido con todo el stock vendido fallaría.
func TestUpdateOrder_ValidaContraStockMasCantidadesDevueltas(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodVino, 3))
	require.Zero(t, f.stock(t, prodVino))

	out, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodVino, 3)),
	})

	require.NoError(t, err)
	assert.Zero(t, f.stock(t, prodVino))
	assertMoney(t, "89.97", out.Total)

	_, err = f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodVino, 4)),
	})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 4, stockErr.Requested)
}

func TestUpdateOrder_CambioDeProductoDevuelveElAnterior(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 4))

	_, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodAgua, 2)),
	})

	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, prodCerv))
	assert.Equal(t, 3, f.stock(t, prodAgua))
}

func TestUpdateOrder_FallaConservaLineasYStock(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 2), line(prodAgua, 1))

	_, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		PaymentMethod: strPtr("credit"),
		Lines:         linesPtr(line(prodCerv, 1), line(prodVino, 50)),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 8, f.stock(t, prodCerv))
	assert.Equal(t, 4, f.stock(t, prodAgua))
	assert.Equal(t, 3, f.stock(t, prodVino))

	got, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, "cash", got.PaymentMethod)
	assertMoney(t, "12.50", got.Total)
}

func TestUpdateOrder_SoloCabeceraNoTocaStock(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 2))

	out, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		PaymentMethod: strPtr("debit"),
		TerminalID:    strPtr(termBar),
		EventID:       strPtr(eventBar),
	})

	require.NoError(t, err)
	assert.Equal(t, "debit", out.PaymentMethod)
	require.NotNil(t, out.Terminal)
	assert.Equal(t, termBar, out.Terminal.ID)
	require.NotNil(t, out.Event)
	assert.Equal(t, 8, f.stock(t, prodCerv))
	assertMoney(t, "10.00", out.Total)
	assert.Equal(t, created.Lines[0].ID, out.Lines[0].ID)
}

func TestUpdateOrder_CambioDeUnidadRevalidaTerminal(t *testing.T) {
	f := newFixture(t)
	created, err := f.manager.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, TerminalID: termBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)},
	})
	require.NoError(t, err)

	_, err = f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{UnitID: strPtr(unitSalon)})

	var refErr *domain.ReferenceNotFoundError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "terminal", refErr.Entity)

	out, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		UnitID: strPtr(unitSalon), TerminalID: strPtr(termSalon),
	})
	require.NoError(t, err)
	assert.Equal(t, unitSalon, out.Unit.ID)
}

func TestUpdateOrder_Rechazos(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 1))

	_, err := f.manager.UpdateOrder(context.Background(), "no-existe", orders.UpdateOrderInput{PaymentMethod: strPtr("cash")})
	var nf *domain.OrderNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "no-existe", nf.OrderID)

	_, err = f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{Lines: linesPtr()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{PaymentMethod: strPtr("trueque")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 9, f.stock(t, prodCerv))
}

func TestUpdateOrder_InvalidaCache(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 1))
	_, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, f.cache.has(created.ID))

	_, err = f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{Lines: linesPtr(line(prodCerv, 2))})
	require.NoError(t, err)
	assert.False(t, f.cache.has(created.ID))

	got, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assertMoney(t, "10.00", got.Total)
}

// ──────────────────────────────────────────────────────────────────────────────
// CancelOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelOrder_DevuelveStockYElimina(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 3))
	_, err := f.query.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)

	require.NoError(t, f.manager.CancelOrder(context.Background(), created.ID))

	assert.Equal(t, 10, f.stock(t, prodCerv))
	_, err = f.query.GetOrder(context.Background(), created.ID)
	var nf *domain.OrderNotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.False(t, f.cache.has(created.ID))
}

func TestCancelOrder_Inexistente(t *testing.T) {
	f := newFixture(t)

	err := f.manager.CancelOrder(context.Background(), "no-existe")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelOrder_ProductoEliminadoDelCatalogo(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, line(prodCerv, 2), line(prodAgua, 1))
	f.store.DeleteProduct(prodCerv)

	require.NoError(t, f.manager.CancelOrder(context.Background(), created.ID))

	assert.Equal(t, 5, f.stock(t, prodAgua))
	assert.Zero(t, f.store.OrderCount())
}

func TestCrearYCancelar_RestauraElEstadoInicial(t *testing.T) {
	f := newFixture(t)
	before := map[string]int{prodCerv: f.stock(t, prodCerv), prodAgua: f.stock(t, prodAgua), prodVino: f.stock(t, prodVino)}

	created := f.create(t, line(prodCerv, 4), line(prodAgua, 5), line(prodVino, 1))
	_, err := f.manager.UpdateOrder(context.Background(), created.ID, orders.UpdateOrderInput{
		Lines: linesPtr(line(prodVino, 3), line(prodCerv, 1)),
	})
	require.NoError(t, err)
	require.NoError(t, f.manager.CancelOrder(context.Background(), created.ID))

	for id, want := range before {
		assert.Equal(t, want, f.stock(t, id), id)
	}
	assert.Zero(t, f.store.OrderCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallos de infraestructura
// ──────────────────────────────────────────────────────────────────────────────

type mockTxRunner struct {
	mock.Mock
}

func (m *mockTxRunner) Run(ctx context.Context, fn func(repos orders.Repos) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func TestOrderManager_FalloDeTransaccionEsErrorDeAlmacenamiento(t *testing.T) {
	tx := new(mockTxRunner)
	tx.On("Run", mock.Anything, mock.Anything).Return(errors.New("conexión perdida"))
	cache := newFakeCache()
	m := orders.NewOrderManager(tx, cache, nil)

	_, err := m.CreateOrder(context.Background(), orders.CreateOrderInput{
		UnitID: unitBar, PaymentMethod: "cash", Lines: []orders.LineInput{line(prodCerv, 1)},
	})
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, domain.IsBusinessError(err))
	assert.Contains(t, err.Error(), "conexión perdida")

	err = m.CancelOrder(context.Background(), "o-1")
	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "cancelar pedido", se.Op)
	assert.Zero(t, cache.deletes.Load(), "sin commit no se invalida la cache")

	tx.AssertNumberOfCalls(t, "Run", 2)
}

func TestOrderManager_ValidacionNoAbreTransaccion(t *testing.T) {
	tx := new(mockTxRunner)
	m := orders.NewOrderManager(tx, nil, nil)

	_, err := m.CreateOrder(context.Background(), orders.CreateOrderInput{UnitID: unitBar, PaymentMethod: "cash"})

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	tx.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

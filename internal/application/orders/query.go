package orders

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

const tracerName = "github.com/jhoicas/Comandas-api/internal/application/orders"

// QueryService lectura de pedidos materializados (proyección pura, sin invariantes).
type QueryService struct {
	repos    Repos
	cache    OrderCache
	cacheTTL time.Duration
	log      *logger.Logger
	tracer   trace.Tracer
}

// NewQueryService construye el servicio. cache puede ser nil (sin cache).
func NewQueryService(repos Repos, cache OrderCache, cacheTTL time.Duration, log *logger.Logger) *QueryService {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryService{
		repos:    repos,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

// GetOrder devuelve el pedido con líneas, nombres de producto, unidad, terminal y evento.
func (q *QueryService) GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	ctx, span := q.tracer.Start(ctx, "orders.GetOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if orderID == "" {
		return nil, &domain.OrderNotFoundError{OrderID: orderID}
	}
	if q.cache != nil {
		cached, ok, err := q.cache.Get(ctx, orderID)
		if err != nil {
			q.log.Warn().Err(err).Str("order_id", orderID).Msg("cache de pedidos no disponible")
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	order, err := q.repos.Orders.GetWithLines(ctx, orderID)
	if err != nil {
		return nil, domain.NewStorageError("obtener pedido", err)
	}
	if order == nil {
		return nil, &domain.OrderNotFoundError{OrderID: orderID}
	}
	out, err := assemble(ctx, q.repos, []*entity.Order{order})
	if err != nil {
		return nil, domain.NewStorageError("materializar pedido", err)
	}

	if q.cache != nil && q.cacheTTL > 0 {
		q.cacheOrder(ctx, order, &out[0])
	}
	return &out[0], nil
}

// cacheOrder guarda el pedido y vuelve a leer la fila. Una mutación que confirmó entre la
// lectura y el Set ya invalidó antes de que la entrada existiera: si la fila cambió o
// desapareció, la entrada recién escrita se borra.
func (q *QueryService) cacheOrder(ctx context.Context, read *entity.Order, resp *dto.OrderResponse) {
	if err := q.cache.Set(ctx, read.ID, resp, q.cacheTTL); err != nil {
		q.log.Warn().Err(err).Str("order_id", read.ID).Msg("no se pudo guardar el pedido en cache")
		return
	}
	current, err := q.repos.Orders.GetWithLines(ctx, read.ID)
	if err == nil && sameVersion(read, current) {
		return
	}
	if err := q.cache.Delete(ctx, read.ID); err != nil {
		q.log.Warn().Err(err).Str("order_id", read.ID).Msg("no se pudo descartar el pedido de cache")
	}
}

// sameVersion compara cabecera y líneas. ReplaceLines genera IDs de línea nuevos, así que un
// reemplazo se detecta aunque cantidades y total coincidan.
func sameVersion(a, b *entity.Order) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) || !a.Total.Equal(b.Total) ||
		a.UnitID != b.UnitID || a.TerminalID != b.TerminalID || a.EventID != b.EventID ||
		a.PaymentMethod != b.PaymentMethod || len(a.Lines) != len(b.Lines) {
		return false
	}
	for i := range a.Lines {
		if a.Lines[i].ID != b.Lines[i].ID || a.Lines[i].Quantity != b.Lines[i].Quantity {
			return false
		}
	}
	return true
}

// ListOrders lista pedidos (fecha descendente) filtrando por unidad y rango de fechas.
func (q *QueryService) ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.OrderListResponse, error) {
	ctx, span := q.tracer.Start(ctx, "orders.ListOrders", trace.WithAttributes(attribute.String("unit.id", filter.UnitID)))
	defer span.End()

	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidInput
	}

	list, err := q.repos.Orders.List(ctx, filter)
	if err != nil {
		return nil, domain.NewStorageError("listar pedidos", err)
	}
	out, err := assemble(ctx, q.repos, list)
	if err != nil {
		return nil, domain.NewStorageError("materializar pedidos", err)
	}
	return &dto.OrderListResponse{
		Orders: out,
		Page:   dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// assemble materializa pedidos con lecturas por lote. Lo usan tanto las consultas como
// el OrderManager dentro de su transacción (repos atados a la tx).
func assemble(ctx context.Context, r Repos, list []*entity.Order) ([]dto.OrderResponse, error) {
	out := make([]dto.OrderResponse, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}

	var productIDs, unitIDs, terminalIDs, eventIDs []string
	seen := make(map[string]bool)
	collect := func(dst *[]string, kind, id string) {
		if id == "" || seen[kind+id] {
			return
		}
		seen[kind+id] = true
		*dst = append(*dst, id)
	}
	for _, o := range list {
		collect(&unitIDs, "u", o.UnitID)
		collect(&terminalIDs, "t", o.TerminalID)
		collect(&eventIDs, "e", o.EventID)
		for _, l := range o.Lines {
			collect(&productIDs, "p", l.ProductID)
		}
	}

	products, err := r.Products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	units, err := r.Units.GetByIDs(ctx, unitIDs)
	if err != nil {
		return nil, err
	}
	terminals := map[string]*entity.Terminal{}
	if len(terminalIDs) > 0 {
		if terminals, err = r.Terminals.GetByIDs(ctx, terminalIDs); err != nil {
			return nil, err
		}
	}
	events := map[string]*entity.Event{}
	if len(eventIDs) > 0 {
		if events, err = r.Events.GetByIDs(ctx, eventIDs); err != nil {
			return nil, err
		}
	}

	for _, o := range list {
		resp := dto.OrderResponse{
			ID:            o.ID,
			Date:          o.CreatedAt.UTC().Format(time.RFC3339),
			Total:         o.Total,
			PaymentMethod: string(o.PaymentMethod),
			Unit:          dto.UnitRef{ID: o.UnitID},
			Lines:         make([]dto.OrderLineResponse, 0, len(o.Lines)),
		}
		if u := units[o.UnitID]; u != nil {
			resp.Unit.Name = u.Name
		}
		if o.TerminalID != "" {
			resp.Terminal = &dto.TerminalRef{ID: o.TerminalID}
			if t := terminals[o.TerminalID]; t != nil {
				resp.Terminal.Name = t.Name
				resp.Terminal.SerialNumber = t.SerialNumber
			}
		}
		if o.EventID != "" {
			resp.Event = &dto.EventRef{ID: o.EventID}
			if e := events[o.EventID]; e != nil {
				resp.Event.Name = e.Name
			}
		}
		for _, l := range o.Lines {
			line := dto.OrderLineResponse{
				ID:        l.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Subtotal:  l.Subtotal,
			}
			if p := products[l.ProductID]; p != nil {
				line.ProductName = p.Name
			}
			resp.Lines = append(resp.Lines, line)
		}
		out = append(out, resp)
	}
	return out, nil
}

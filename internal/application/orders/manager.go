package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/domain/pricing"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

// CreateOrderInput entrada de CreateOrder. TerminalID y EventID son opcionales.
type CreateOrderInput struct {
	UnitID        string
	TerminalID    string
	EventID       string
	PaymentMethod string
	Lines         []LineInput
}

// UpdateOrderInput parche de UpdateOrder. nil = sin cambio; Lines != nil reemplaza todas las líneas.
type UpdateOrderInput struct {
	UnitID        *string
	TerminalID    *string
	EventID       *string
	PaymentMethod *string
	Lines         *[]LineInput
}

// OrderManager crea, modifica y cancela pedidos como unidades atómicas: stock, líneas y total
// se confirman juntos o no se confirma nada. No guarda estado entre llamadas.
type OrderManager struct {
	txRunner TxRunner
	cache    OrderCache
	log      *logger.Logger
	tracer   trace.Tracer
	metrics  mutationMetrics
	now      func() time.Time
}

// NewOrderManager construye el caso de uso. cache puede ser nil.
func NewOrderManager(txRunner TxRunner, cache OrderCache, log *logger.Logger) *OrderManager {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderManager{
		txRunner: txRunner,
		cache:    cache,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		metrics:  newMutationMetrics(otel.GetMeterProvider()),
		now:      time.Now,
	}
}

// WithMeterProvider reemplaza el MeterProvider global (tests con un lector manual).
func (m *OrderManager) WithMeterProvider(mp metric.MeterProvider) *OrderManager {
	m.metrics = newMutationMetrics(mp)
	return m
}

// CreateOrder valida disponibilidad, descuenta stock, toma la foto de precios y persiste
// pedido y líneas en una sola transacción. Devuelve el pedido materializado.
func (m *OrderManager) CreateOrder(ctx context.Context, in CreateOrderInput) (*dto.OrderResponse, error) {
	ctx, span := m.tracer.Start(ctx, "orders.CreateOrder", trace.WithAttributes(
		attribute.String("unit.id", in.UnitID),
		attribute.Int("order.lines", len(in.Lines)),
	))
	defer span.End()

	method, ok := entity.ParsePaymentMethod(in.PaymentMethod)
	if in.UnitID == "" || !ok {
		return nil, m.fail(ctx, span, opCreate, "", domain.ErrInvalidInput)
	}
	demand, err := validateLines(in.Lines)
	if err != nil {
		return nil, m.fail(ctx, span, opCreate, "", err)
	}

	now := m.now().UTC()
	order := &entity.Order{
		ID:            uuid.New().String(),
		UnitID:        in.UnitID,
		TerminalID:    in.TerminalID,
		EventID:       in.EventID,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var out *dto.OrderResponse
	err = m.txRunner.Run(ctx, func(r Repos) error {
		if err := checkReferences(ctx, r, order); err != nil {
			return err
		}
		locked, err := moveStock(ctx, r.Products, nil, demand)
		if err != nil {
			return err
		}
		if err := priceOrder(order, in.Lines, locked); err != nil {
			return err
		}
		if err := r.Orders.CreateWithLines(ctx, order, order.Lines); err != nil {
			return err
		}
		out, err = materialize(ctx, r, order)
		return err
	})
	if err != nil {
		return nil, m.fail(ctx, span, opCreate, "", err)
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	m.metrics.record(ctx, opCreate, nil)
	m.log.Info().
		Str("order_id", order.ID).
		Str("unit_id", order.UnitID).
		Str("total", order.Total.StringFixed(2)).
		Int("lines", len(order.Lines)).
		Msg("pedido creado")
	return out, nil
}

// UpdateOrder aplica el parche. Si trae líneas, devuelve el stock de las anteriores y valida/
// descuenta las nuevas en la misma transacción: si alguna falla, nada cambia.
func (m *OrderManager) UpdateOrder(ctx context.Context, orderID string, in UpdateOrderInput) (*dto.OrderResponse, error) {
	ctx, span := m.tracer.Start(ctx, "orders.UpdateOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var method entity.PaymentMethod
	if in.PaymentMethod != nil {
		pm, ok := entity.ParsePaymentMethod(*in.PaymentMethod)
		if !ok {
			return nil, m.fail(ctx, span, opUpdate, orderID, domain.ErrInvalidInput)
		}
		method = pm
	}
	if in.UnitID != nil && *in.UnitID == "" {
		return nil, m.fail(ctx, span, opUpdate, orderID, domain.ErrInvalidInput)
	}
	var demand map[string]int
	if in.Lines != nil {
		d, err := validateLines(*in.Lines)
		if err != nil {
			return nil, m.fail(ctx, span, opUpdate, orderID, err)
		}
		demand = d
	}

	var out *dto.OrderResponse
	err := m.txRunner.Run(ctx, func(r Repos) error {
		order, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &domain.OrderNotFoundError{OrderID: orderID}
		}

		headerChanged := false
		if in.UnitID != nil && *in.UnitID != order.UnitID {
			order.UnitID, headerChanged = *in.UnitID, true
		}
		if in.TerminalID != nil && *in.TerminalID != order.TerminalID {
			order.TerminalID, headerChanged = *in.TerminalID, true
		}
		if in.EventID != nil && *in.EventID != order.EventID {
			order.EventID, headerChanged = *in.EventID, true
		}
		if in.PaymentMethod != nil {
			order.PaymentMethod = method
		}
		if headerChanged {
			if err := checkReferences(ctx, r, order); err != nil {
				return err
			}
		}

		if in.Lines != nil {
			locked, err := moveStock(ctx, r.Products, order.QuantitiesByProduct(), demand)
			if err != nil {
				return err
			}
			if err := priceOrder(order, *in.Lines, locked); err != nil {
				return err
			}
			if err := r.Orders.ReplaceLines(ctx, order.ID, order.Lines); err != nil {
				return err
			}
		}

		order.UpdatedAt = m.now().UTC()
		if err := r.Orders.Update(ctx, order); err != nil {
			return err
		}
		out, err = materialize(ctx, r, order)
		return err
	})
	if err != nil {
		return nil, m.fail(ctx, span, opUpdate, orderID, err)
	}

	m.invalidate(ctx, orderID)
	m.metrics.record(ctx, opUpdate, nil)
	m.log.Info().
		Str("order_id", orderID).
		Bool("lines_replaced", in.Lines != nil).
		Str("total", out.Total.StringFixed(2)).
		Msg("pedido actualizado")
	return out, nil
}

// CancelOrder devuelve el stock de todas las líneas y elimina líneas y pedido en una transacción.
func (m *OrderManager) CancelOrder(ctx context.Context, orderID string) error {
	ctx, span := m.tracer.Start(ctx, "orders.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var restored map[string]int
	err := m.txRunner.Run(ctx, func(r Repos) error {
		order, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &domain.OrderNotFoundError{OrderID: orderID}
		}
		restored = order.QuantitiesByProduct()
		if _, err := moveStock(ctx, r.Products, restored, nil); err != nil {
			return err
		}
		return r.Orders.DeleteWithLines(ctx, orderID)
	})
	if err != nil {
		return m.fail(ctx, span, opCancel, orderID, err)
	}

	m.invalidate(ctx, orderID)
	m.metrics.record(ctx, opCancel, nil)
	m.log.Info().Str("order_id", orderID).Int("products_restocked", len(restored)).Msg("pedido cancelado")
	return nil
}

// checkReferences valida unidad, terminal (de la misma unidad) y evento (de la misma unidad).
func checkReferences(ctx context.Context, r Repos, order *entity.Order) error {
	unit, err := r.Units.GetByID(ctx, order.UnitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return &domain.ReferenceNotFoundError{Entity: "unit", ID: order.UnitID}
	}
	if order.TerminalID != "" {
		t, err := r.Terminals.GetByID(ctx, order.TerminalID)
		if err != nil {
			return err
		}
		if t == nil || t.UnitID != order.UnitID {
			return &domain.ReferenceNotFoundError{Entity: "terminal", ID: order.TerminalID}
		}
	}
	if order.EventID != "" {
		e, err := r.Events.GetByID(ctx, order.EventID)
		if err != nil {
			return err
		}
		if e == nil || e.UnitID != order.UnitID {
			return &domain.ReferenceNotFoundError{Entity: "event", ID: order.EventID}
		}
	}
	return nil
}

// priceOrder construye las líneas con la foto del precio de venta actual y recalcula el total.
func priceOrder(order *entity.Order, lines []LineInput, products map[string]*entity.Product) error {
	priced := make([]pricing.Line, 0, len(lines))
	order.Lines = make([]entity.OrderLine, 0, len(lines))
	for _, in := range lines {
		unitPrice := products[in.ProductID].SalePrice.Round(2)
		subtotal, err := pricing.LineSubtotal(in.Quantity, unitPrice)
		if err != nil {
			return err
		}
		order.Lines = append(order.Lines, entity.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
		})
		priced = append(priced, pricing.Line{ProductID: in.ProductID, Quantity: in.Quantity, UnitPrice: unitPrice})
	}
	total, err := pricing.OrderTotal(priced)
	if err != nil {
		return err
	}
	order.Total = total
	return nil
}

func materialize(ctx context.Context, r Repos, order *entity.Order) (*dto.OrderResponse, error) {
	out, err := assemble(ctx, r, []*entity.Order{order})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// invalidate borra el pedido de la cache tras un commit. Un fallo aquí solo se registra:
// el TTL acota la ventana de lectura obsoleta.
func (m *OrderManager) invalidate(ctx context.Context, orderID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, orderID); err != nil {
		m.log.Warn().Err(err).Str("order_id", orderID).Msg("no se pudo invalidar el pedido en cache")
	}
}

// fail clasifica el error: rechazos de negocio se devuelven tal cual; el resto se envuelve
// en StorageError. Nunca se reintenta aquí.
func (m *OrderManager) fail(ctx context.Context, span trace.Span, op, orderID string, err error) error {
	if !domain.IsBusinessError(err) {
		err = domain.NewStorageError(op, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	m.metrics.record(ctx, op, err)

	ev := m.log.Warn()
	if errors.Is(err, domain.ErrStorage) {
		ev = m.log.Error()
	}
	if orderID != "" {
		ev = ev.Str("order_id", orderID)
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		ev = ev.Str("product_id", stockErr.ProductID).
			Int("available", stockErr.Available).
			Int("requested", stockErr.Requested)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		ev = ev.AnErr("ctx_err", ctxErr)
	}
	ev.Err(err).Str("op", op).Msg("operación de pedido rechazada")
	return err
}

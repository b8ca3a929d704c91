package orders

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jhoicas/Comandas-api/internal/domain"
)

const (
	opCreate = "crear pedido"
	opUpdate = "actualizar pedido"
	opCancel = "cancelar pedido"
)

var opLabels = map[string]string{
	opCreate: "create",
	opUpdate: "update",
	opCancel: "cancel",
}

// mutationMetrics contadores de mutaciones. outcome: ok | rejected (negocio) | error (almacenamiento).
type mutationMetrics struct {
	mutations      metric.Int64Counter
	stockConflicts metric.Int64Counter
}

func newMutationMetrics(mp metric.MeterProvider) mutationMetrics {
	meter := mp.Meter(tracerName)
	mutations, err := meter.Int64Counter("comandas.orders.mutations",
		metric.WithDescription("Mutaciones de pedidos por operación y resultado"))
	if err != nil {
		mutations, _ = noop.Meter{}.Int64Counter("")
	}
	conflicts, err := meter.Int64Counter("comandas.orders.stock_conflicts",
		metric.WithDescription("Rechazos por stock insuficiente o producto no disponible"))
	if err != nil {
		conflicts, _ = noop.Meter{}.Int64Counter("")
	}
	return mutationMetrics{mutations: mutations, stockConflicts: conflicts}
}

func (mm mutationMetrics) record(ctx context.Context, op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case domain.IsBusinessError(err):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	// Sin cancelación: el contador se registra aunque el ctx de la petición haya expirado.
	ctx = context.WithoutCancel(ctx)
	mm.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", opLabels[op]),
		attribute.String("outcome", outcome),
	))

	var (
		stockErr   *domain.InsufficientStockError
		unavailErr *domain.ProductUnavailableError
	)
	switch {
	case errors.As(err, &stockErr):
		mm.stockConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "insufficient_stock")))
	case errors.As(err, &unavailErr):
		mm.stockConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unavailable")))
	}
}

package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comandas-api/internal/application/dto"
	"github.com/jhoicas/Comandas-api/internal/application/orders"
	"github.com/jhoicas/Comandas-api/internal/domain"
	"github.com/jhoicas/Comandas-api/internal/domain/repository"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

type orderCommands interface {
	CreateOrder(ctx context.Context, in orders.CreateOrderInput) (*dto.OrderResponse, error)
	UpdateOrder(ctx context.Context, orderID string, in orders.UpdateOrderInput) (*dto.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
}

type orderQueries interface {
	GetOrder(ctx context.Context, orderID string) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) (*dto.OrderListResponse, error)
}

// OrderHandler maneja las peticiones HTTP de pedidos (protegido).
type OrderHandler struct {
	commands        orderCommands
	queries         orderQueries
	log             *logger.Logger
	mutationTimeout time.Duration
}

// NewOrderHandler construye el handler. mutationTimeout acota cada create/update/cancel.
func NewOrderHandler(commands orderCommands, queries orderQueries, log *logger.Logger, mutationTimeout time.Duration) *OrderHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderHandler{commands: commands, queries: queries, log: log, mutationTimeout: mutationTimeout}
}

func (h *OrderHandler) mutationContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.mutationTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.mutationTimeout)
}

func toLineInputs(in []dto.OrderLineRequest) []orders.LineInput {
	out := make([]orders.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, orders.LineInput{ProductID: strings.TrimSpace(l.ProductID), Quantity: l.Quantity})
	}
	return out
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no tiene acceso a esta unidad"})
}

// checkOrderScope para tokens limitados a una unidad: el pedido debe ser de esa unidad.
// Un pedido de otra unidad se reporta como inexistente.
func (h *OrderHandler) checkOrderScope(c *fiber.Ctx, orderID string) error {
	if GetUnitID(c) == "" {
		return nil
	}
	order, err := h.queries.GetOrder(c.UserContext(), orderID)
	if err != nil {
		return err
	}
	if !unitAllowed(c, order.Unit.ID) {
		return &domain.OrderNotFoundError{OrderID: orderID}
	}
	return nil
}

// Create registra un pedido y descuenta stock.
// POST /api/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !unitAllowed(c, in.UnitID) {
		return forbidden(c)
	}

	ctx, cancel := h.mutationContext(c)
	defer cancel()
	order, err := h.commands.CreateOrder(ctx, orders.CreateOrderInput{
		UnitID:        strings.TrimSpace(in.UnitID),
		TerminalID:    strings.TrimSpace(in.TerminalID),
		EventID:       strings.TrimSpace(in.EventID),
		PaymentMethod: in.PaymentMethod,
		Lines:         toLineInputs(in.Lines),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// Update modifica cabecera y/o reemplaza las líneas.
// PATCH /api/orders/:id
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.UpdateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.UnitID != nil && !unitAllowed(c, *in.UnitID) {
		return forbidden(c)
	}
	if err := h.checkOrderScope(c, id); err != nil {
		return writeError(c, h.log, err)
	}

	patch := orders.UpdateOrderInput{
		UnitID:        in.UnitID,
		TerminalID:    in.TerminalID,
		EventID:       in.EventID,
		PaymentMethod: in.PaymentMethod,
	}
	if in.Lines != nil {
		lines := toLineInputs(*in.Lines)
		patch.Lines = &lines
	}

	ctx, cancel := h.mutationContext(c)
	defer cancel()
	order, err := h.commands.UpdateOrder(ctx, id, patch)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(order)
}

// Cancel elimina el pedido y devuelve su stock.
// DELETE /api/orders/:id
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.checkOrderScope(c, id); err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := h.mutationContext(c)
	defer cancel()
	if err := h.commands.CancelOrder(ctx, id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID devuelve el pedido materializado.
// GET /api/orders/:id
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	order, err := h.queries.GetOrder(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !unitAllowed(c, order.Unit.ID) {
		return writeError(c, h.log, &domain.OrderNotFoundError{OrderID: id})
	}
	return c.JSON(order)
}

// List pedidos por unidad y rango de fechas.
// GET /api/orders?unit_id=&from=&to=&limit=&offset=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	filter := repository.OrderFilter{
		UnitID: strings.TrimSpace(c.Query("unit_id")),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if scope := GetUnitID(c); scope != "" {
		if filter.UnitID == "" {
			filter.UnitID = scope
		} else if filter.UnitID != scope {
			return forbidden(c)
		}
	}

	var err error
	if filter.From, err = parseDateParam(c.Query("from"), false); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: use RFC3339 o YYYY-MM-DD"})
	}
	if filter.To, err = parseDateParam(c.Query("to"), true); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: use RFC3339 o YYYY-MM-DD"})
	}

	list, err := h.queries.ListOrders(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(list)
}

// parseDateParam acepta RFC3339 o YYYY-MM-DD (UTC). Con endOfDay una fecha sin hora cubre el día completo.
func parseDateParam(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

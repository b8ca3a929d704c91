package dto

import "github.com/shopspring/decimal"

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	UnitID        string             `json:"unit_id"`
	TerminalID    string             `json:"terminal_id,omitempty"`
	EventID       string             `json:"event_id,omitempty"`
	PaymentMethod string             `json:"payment_method"` // cash|credit|debit|pix
	Lines         []OrderLineRequest `json:"lines"`
}

// OrderLineRequest línea solicitada (el precio se toma del producto, nunca del cliente).
type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateOrderRequest body para PATCH /api/orders/:id.
// Campos nil no cambian. Lines presente (aunque vacío) reemplaza todas las líneas.
// TerminalID/EventID con "" desasocian.
type UpdateOrderRequest struct {
	UnitID        *string             `json:"unit_id,omitempty"`
	TerminalID    *string             `json:"terminal_id,omitempty"`
	EventID       *string             `json:"event_id,omitempty"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Lines         *[]OrderLineRequest `json:"lines,omitempty"`
}

// OrderResponse pedido materializado con líneas, unidad, terminal y evento.
type OrderResponse struct {
	ID            string              `json:"id"`
	Date          string              `json:"date"` // RFC3339
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	Unit          UnitRef             `json:"unit"`
	Terminal      *TerminalRef        `json:"terminal,omitempty"`
	Event         *EventRef           `json:"event,omitempty"`
	Lines         []OrderLineResponse `json:"lines"`
}

// OrderLineResponse línea con el nombre del producto referenciado.
type OrderLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"` // vacío si el producto fue eliminado
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// UnitRef referencia resumida a la unidad.
type UnitRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TerminalRef referencia resumida a la terminal de cobro.
type TerminalRef struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// EventRef referencia resumida al evento.
type EventRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// OrderListResponse respuesta de GET /api/orders.
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Page   PageResponse    `json:"page"`
}

// StockConflictDetails detalle de 409 INSUFFICIENT_STOCK.
type StockConflictDetails struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

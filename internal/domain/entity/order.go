package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order cabecera de un pedido de venta. Total es derivado: Σ Quantity*UnitPrice de Lines.
// No hay campo de estado: el pedido existe con un conjunto de líneas consistente o no existe.
type Order struct {
	ID            string
	UnitID        string
	TerminalID    string // vacío = sin terminal
	EventID       string // vacío = sin evento
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine línea de pedido. UnitPrice es la foto del precio de venta al crear la línea.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// QuantitiesByProduct agrupa cantidades por producto (un producto puede repetirse en varias líneas).
func (o *Order) QuantitiesByProduct() map[string]int {
	out := make(map[string]int, len(o.Lines))
	for _, l := range o.Lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible de una unidad (bar, espacio de eventos).
// Stock solo se modifica mediante el ajuste bloqueado del motor de pedidos.
type Product struct {
	ID            string
	UnitID        string
	CategoryID    string
	Name          string
	PurchasePrice decimal.Decimal // precio de compra
	SalePrice     decimal.Decimal // precio de venta (se copia a la línea al vender)
	Available     bool
	Stock         int // nunca negativo
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Comandas-api/internal/domain"
)

// Line datos mínimos de una línea para calcular montos.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineSubtotal = Cantidad * PrecioUnitario (servicio de dominio, sin efectos).
func LineSubtotal(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	return lineSubtotal(0, Line{Quantity: quantity, UnitPrice: unitPrice})
}

// OrderTotal = Σ LineSubtotal(l) para todas las líneas. Sin líneas el total es cero.
func OrderTotal(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, l := range lines {
		sub, err := lineSubtotal(i, l)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(sub)
	}
	return total, nil
}

func lineSubtotal(index int, l Line) (decimal.Decimal, error) {
	if l.Quantity < 0 {
		return decimal.Zero, &domain.InvalidLineError{Index: index, ProductID: l.ProductID, Reason: "cantidad negativa"}
	}
	if l.UnitPrice.IsNegative() {
		return decimal.Zero, &domain.InvalidLineError{Index: index, ProductID: l.ProductID, Reason: "precio negativo"}
	}
	return decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitPrice), nil
}

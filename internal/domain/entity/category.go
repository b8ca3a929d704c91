package entity

import "time"

// Category agrupa productos de una unidad. Solo se referencia desde Product.
type Category struct {
	ID        string
	UnitID    string
	Name      string
	CreatedAt time.Time
}

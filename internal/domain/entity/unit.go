package entity

import "time"

// Unit tenant/local (bar, restaurante, espacio) dueño de productos, pedidos y terminales.
type Unit struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Terminal dispositivo de cobro asociado a una unidad.
type Terminal struct {
	ID           string
	UnitID       string
	Name         string
	SerialNumber string
}

// Event evento de una unidad al que se pueden asociar pedidos.
type Event struct {
	ID       string
	UnitID   string
	Name     string
	StartsAt time.Time
}

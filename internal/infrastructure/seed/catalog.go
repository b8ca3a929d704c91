// Package seed arma catálogos de arranque: uno de demostración y otro leído de un CSV de productos.
// Lo consumen el store en memoria (cmd/api con STORE_DRIVER=memory) y cmd/seed.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/memory"
)

// Catalog entidades a cargar, en orden de dependencia.
type Catalog struct {
	Units      []entity.Unit
	Terminals  []entity.Terminal
	Events     []entity.Event
	Categories []entity.Category
	Products   []entity.Product
}

// Demo catálogo fijo de una unidad con terminal, evento y bebidas. IDs estables para poder
// probar la API a mano.
func Demo(now time.Time) Catalog {
	now = now.UTC()
	return Catalog{
		Units: []entity.Unit{{ID: "unit-demo", Name: "Bar Demo", CreatedAt: now}},
		Terminals: []entity.Terminal{
			{ID: "term-demo-1", UnitID: "unit-demo", Name: "Caja 1", SerialNumber: "DEMO-0001"},
		},
		Events: []entity.Event{
			{ID: "event-demo", UnitID: "unit-demo", Name: "Noche de apertura", StartsAt: now.Truncate(24 * time.Hour).Add(21 * time.Hour)},
		},
		Categories: []entity.Category{
			{ID: "cat-demo-bebidas", UnitID: "unit-demo", Name: "Bebidas", CreatedAt: now},
		},
		Products: []entity.Product{
			demoProduct("prod-demo-cerveza", "Cerveza", "2.10", "5.00", 100, now),
			demoProduct("prod-demo-agua", "Agua", "0.80", "2.50", 50, now),
			demoProduct("prod-demo-vino", "Copa de vino", "9.00", "29.99", 20, now),
		},
	}
}

func demoProduct(id, name, cost, price string, stock int, now time.Time) entity.Product {
	return entity.Product{
		ID:            id,
		UnitID:        "unit-demo",
		CategoryID:    "cat-demo-bebidas",
		Name:          name,
		PurchasePrice: decimal.RequireFromString(cost),
		SalePrice:     decimal.RequireFromString(price),
		Available:     true,
		Stock:         stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CSVOptions opciones de lectura del CSV de productos.
type CSVOptions struct {
	UnitID string
	Latin1 bool // el archivo viene en ISO-8859-1 (exportaciones de planillas)
	Comma  rune // 0 = ','
	Now    time.Time
}

// CSV columnas esperadas (con cabecera): nombre, categoria, precio_compra, precio_venta, stock[, disponible]
var csvHeader = []string{"nombre", "categoria", "precio_compra", "precio_venta", "stock"}

// ParseProductsCSV lee productos de r y arma categorías únicas por nombre.
// Los errores indican la línea del archivo.
func ParseProductsCSV(r io.Reader, opts CSVOptions) (Catalog, error) {
	if opts.UnitID == "" {
		return Catalog{}, errors.New("seed: unit_id requerido")
	}
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	now := opts.Now.UTC()

	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Catalog{}, fmt.Errorf("seed: leer cabecera: %w", err)
	}
	for i, want := range csvHeader {
		if i >= len(header) || !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return Catalog{}, fmt.Errorf("seed: cabecera inválida, se espera %s", strings.Join(csvHeader, ","))
		}
	}

	var out Catalog
	categories := map[string]string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Catalog{}, fmt.Errorf("seed: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < len(csvHeader) {
			return Catalog{}, fmt.Errorf("seed: línea %d: faltan columnas", line)
		}

		name := strings.TrimSpace(rec[0])
		if name == "" {
			return Catalog{}, fmt.Errorf("seed: línea %d: nombre vacío", line)
		}
		cost, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			return Catalog{}, fmt.Errorf("seed: línea %d: precio_compra: %w", line, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil || price.IsNegative() {
			return Catalog{}, fmt.Errorf("seed: línea %d: precio_venta inválido", line)
		}
		stock, err := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err != nil || stock < 0 {
			return Catalog{}, fmt.Errorf("seed: línea %d: stock inválido", line)
		}
		available := true
		if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
			if available, err = strconv.ParseBool(strings.TrimSpace(rec[5])); err != nil {
				return Catalog{}, fmt.Errorf("seed: línea %d: disponible: %w", line, err)
			}
		}

		var categoryID string
		if catName := strings.TrimSpace(rec[1]); catName != "" {
			key := strings.ToLower(catName)
			if categoryID = categories[key]; categoryID == "" {
				categoryID = uuid.New().String()
				categories[key] = categoryID
				out.Categories = append(out.Categories, entity.Category{ID: categoryID, UnitID: opts.UnitID, Name: catName, CreatedAt: now})
			}
		}

		out.Products = append(out.Products, entity.Product{
			ID:            uuid.New().String(),
			UnitID:        opts.UnitID,
			CategoryID:    categoryID,
			Name:          name,
			PurchasePrice: cost.Round(2),
			SalePrice:     price.Round(2),
			Available:     available,
			Stock:         stock,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return out, nil
}

// LoadMemory carga el catálogo en el store en memoria.
func LoadMemory(store *memory.Store, cat Catalog) error {
	for _, u := range cat.Units {
		store.PutUnit(u)
	}
	for _, t := range cat.Terminals {
		store.PutTerminal(t)
	}
	for _, e := range cat.Events {
		store.PutEvent(e)
	}
	for _, c := range cat.Categories {
		store.PutCategory(c)
	}
	for _, p := range cat.Products {
		if err := store.PutProduct(p); err != nil {
			return fmt.Errorf("seed: producto %s: %w", p.ID, err)
		}
	}
	return nil
}

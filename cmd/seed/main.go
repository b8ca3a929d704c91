// seed aplica el esquema y carga un catálogo en PostgreSQL: el de demostración o uno leído
// de un CSV de productos (nombre,categoria,precio_compra,precio_venta,stock[,disponible]).
//
// Uso:
//
//	go run ./cmd/seed                               # catálogo demo
//	go run ./cmd/seed -csv productos.csv -unit bar-centro -unit-name "Bar Centro" [-latin1] [-comma ';']
//
// La conexión se toma de la misma configuración que cmd/api (DATABASE_URL o DB_*).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Comandas-api/internal/domain/entity"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/seed"
	"github.com/jhoicas/Comandas-api/pkg/config"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

func main() {
	csvPath := flag.String("csv", "", "CSV de productos; vacío = catálogo demo")
	unitID := flag.String("unit", "", "ID de la unidad dueña de los productos del CSV")
	unitName := flag.String("unit-name", "", "nombre de la unidad (se crea si no existe)")
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	comma := flag.String("comma", ",", "separador de columnas del CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "comandas-seed"})

	cat, err := loadCatalog(*csvPath, *unitID, *unitName, *latin1, *comma)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración del esquema")
	}

	if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return write(ctx, postgres.NewCatalogRepository(tx), cat)
	}); err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}

	log.Info().
		Int("unidades", len(cat.Units)).
		Int("categorias", len(cat.Categories)).
		Int("productos", len(cat.Products)).
		Msg("catálogo cargado")
}

func loadCatalog(path, unitID, unitName string, latin1 bool, comma string) (seed.Catalog, error) {
	if path == "" {
		return seed.Demo(time.Now()), nil
	}
	if unitID == "" {
		return seed.Catalog{}, fmt.Errorf("-unit es obligatorio con -csv")
	}
	sep := []rune(comma)
	if len(sep) != 1 {
		return seed.Catalog{}, fmt.Errorf("-comma debe ser un único carácter")
	}

	f, err := os.Open(path)
	if err != nil {
		return seed.Catalog{}, err
	}
	defer f.Close()

	cat, err := seed.ParseProductsCSV(f, seed.CSVOptions{UnitID: unitID, Latin1: latin1, Comma: sep[0]})
	if err != nil {
		return seed.Catalog{}, err
	}
	if unitName == "" {
		unitName = unitID
	}
	cat.Units = []entity.Unit{{ID: unitID, Name: unitName, CreatedAt: time.Now().UTC()}}
	return cat, nil
}

// write respeta el orden de claves foráneas. Una categoría que ya existía en la unidad conserva
// su ID y los productos se reasignan a él.
func write(ctx context.Context, repo *postgres.CatalogRepo, cat seed.Catalog) error {
	for i := range cat.Units {
		if err := repo.UpsertUnit(ctx, &cat.Units[i]); err != nil {
			return err
		}
	}
	for i := range cat.Terminals {
		if err := repo.UpsertTerminal(ctx, &cat.Terminals[i]); err != nil {
			return err
		}
	}
	for i := range cat.Events {
		if err := repo.UpsertEvent(ctx, &cat.Events[i]); err != nil {
			return err
		}
	}
	categoryIDs := make(map[string]string, len(cat.Categories))
	for i := range cat.Categories {
		id, err := repo.UpsertCategory(ctx, &cat.Categories[i])
		if err != nil {
			return err
		}
		categoryIDs[cat.Categories[i].ID] = id
	}
	for i := range cat.Products {
		p := &cat.Products[i]
		if id, ok := categoryIDs[p.CategoryID]; ok {
			p.CategoryID = id
		}
		if err := repo.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Comandas-api/internal/application/orders"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/seed"
	"github.com/jhoicas/Comandas-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/Comandas-api/internal/interfaces/http"
	"github.com/jhoicas/Comandas-api/pkg/config"
	"github.com/jhoicas/Comandas-api/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("version", version).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	var (
		txRunner orders.TxRunner
		repos    orders.Repos
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		if err := seed.LoadMemory(store, seed.Demo(time.Now())); err != nil {
			log.Fatal().Err(err).Msg("catálogo de demostración")
		}
		log.Warn().Msg("usando store en memoria: los datos se pierden al reiniciar")
		txRunner, repos = memory.NewTxRunner(store), store.Repos()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migración del esquema")
			}
		}
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	var orderCache orders.OrderCache = cache.NoopOrderCache{}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisOrderCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			// Sin Redis las lecturas van directo al store hasta que vuelva.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no responde")
		}
		cancel()
		defer redisCache.Close()
		orderCache = redisCache
	}

	orderManager := orders.NewOrderManager(txRunner, orderCache, log.Component("orders"))
	queryService := orders.NewQueryService(repos, orderCache, cfg.Redis.OrderTTL, log.Component("orders"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Comandas API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Commands:        orderManager,
		Queries:         queryService,
		Log:             log.Component("http"),
		JWTSecret:       cfg.JWT.Secret,
		MutationTimeout: cfg.Orders.MutationTimeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre del exportador de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

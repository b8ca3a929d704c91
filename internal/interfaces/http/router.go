package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comandas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Commands        orderCommands
	Queries         orderQueries
	Log             *logger.Logger
	JWTSecret       string
	MutationTimeout time.Duration
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	orders := protected.Group("/orders")
	h := NewOrderHandler(deps.Commands, deps.Queries, deps.Log, deps.MutationTimeout)
	staff := RequireRole(RoleAdmin, RoleGerente, RoleCajero)
	orders.Post("/", staff, h.Create)
	orders.Get("/", staff, h.List)
	orders.Get("/:id", staff, h.GetByID)
	orders.Patch("/:id", staff, h.Update)
	// Cancelar devuelve stock y borra el pedido: solo gerencia.
	orders.Delete("/:id", RequireRole(RoleAdmin, RoleGerente), h.Cancel)
}

package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Alquiler-api/internal/application/operation"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/obs"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Operations  *operation.Service
	JWTSecret   string
	HTTPMetrics *obs.HTTPMetrics    // nil = sin métricas por petición
	Gatherer    prometheus.Gatherer // nil = sin /metrics
	Health      func() error        // nil = siempre ok
	SwaggerFile string              // "" = sin /docs
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.HTTPMetrics != nil {
		app.Use(deps.HTTPMetrics.Middleware())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	// Swagger UI: http://localhost:<port>/docs
	if deps.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: deps.SwaggerFile,
			Path:     "docs",
			Title:    "Alquiler API",
		}))
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := NewOperationHandler(deps.Operations, deps.Log)

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Altas que mueven stock: requieren sucursal
	withBranch := api.Group("/", RequireBranch())
	withBranch.Post("/sales", h.CreateSale)
	withBranch.Post("/rentals", h.CreateRental)
	withBranch.Post("/reservations", h.CreateReservation)
	withBranch.Post("/quotes", h.Quote)

	api.Post("/reservations/:id/convert", h.ConvertReservation)
	api.Post("/rentals/:id/return", h.ReturnRental)
	api.Post("/sales/:id/return", h.ReturnSale)

	ops := api.Group("/operations")
	ops.Get("/:id", h.GetSummary)
	ops.Post("/:id/payments", h.RegisterPayment)
	ops.Post("/:id/payments/:payment_id/post", h.PostPayment)
	ops.Post("/:id/cancel", h.Cancel)

	api.Get("/clients/:client_id/operations", h.ListByClient)

	// Procesos por lote (solo admin)
	batch := api.Group("/batch", RequireRole("admin"))
	batch.Post("/overdue", h.MarkOverdue)
	batch.Post("/expire-reservations", h.ExpireReservations)
	batch.Post("/reconcile-balances", h.ReconcileBalances)
}

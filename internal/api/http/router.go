package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/campusdesk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Requests *handlers.RequestsHandler
	Metrics  nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	requests := app.Group("/api/requests")
	requests.Get("/", cfg.Requests.ListRequests)
	requests.Get("/stats/summary", cfg.Requests.Stats)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Post("/", cfg.Requests.CreateRequest)
	requests.Patch("/:id/status", cfg.Requests.UpdateStatus)
	requests.Patch("/:id/resubmit", cfg.Requests.Resubmit)
}

package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/VisageDvachevsky/wink-ai-model/internal/handler"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Script     *handler.ScriptHandler
	Detection  *handler.DetectionHandler
	Simulation *handler.SimulationHandler
	Taxonomy   *handler.TaxonomyHandler
	Export     *handler.ExportHandler
	Health     *handler.HealthHandler
}

// Limiters holds the per-route-group rate limiters. A nil limiter disables limiting.
type Limiters struct {
	Simulation *middleware.RateLimiter
	Detection  *middleware.RateLimiter
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, rl *Limiters, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	if rl == nil {
		rl = &Limiters{}
	}
	simulate := limit(rl.Simulation)
	detect := limit(rl.Detection)

	api := app.Group("/api/v1")

	// Taxonomy
	api.Get("/taxonomy", h.Taxonomy.List)
	api.Get("/taxonomy/:key", h.Taxonomy.Get)

	// Interpretation and stateless simulation
	api.Post("/interpret", simulate, h.Simulation.Interpret)
	api.Post("/simulate", simulate, h.Simulation.Simulate)

	// Scripts
	api.Get("/scripts", h.Script.List)
	api.Post("/scripts", h.Script.Create)

	api.Patch("/scripts/detections/:detectionId/false-positive", h.Detection.MarkFalsePositive)

	api.Get("/scripts/:id", h.Script.Get)
	api.Get("/scripts/:id/content", h.Script.GetContent)
	api.Put("/scripts/:id/content", h.Script.PutContent)
	api.Get("/scripts/:id/versions", h.Script.ListVersions)
	api.Post("/scripts/:id/versions", h.Script.CreateVersion)
	api.Post("/scripts/:id/rate", detect, h.Script.Rate)
	api.Post("/scripts/:id/what-if", simulate, h.Simulation.WhatIf)

	// Detections and corrections
	api.Get("/scripts/:id/detections", h.Detection.List)
	api.Post("/scripts/:id/detections", detect, h.Detection.Run)
	api.Get("/scripts/:id/detections/stats", h.Detection.Stats)
	api.Get("/scripts/:id/detections/full", h.Detection.Full)
	api.Get("/scripts/:id/corrections", h.Detection.ListCorrections)
	api.Post("/scripts/:id/corrections", h.Detection.CreateCorrection)
	api.Get("/scripts/:id/adjusted-rating", h.Detection.AdjustedRating)
	api.Get("/scripts/:id/export/csv", h.Export.CSV)
}

// limit returns the limiter's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) fiber.Handler {
	if rl == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	return rl.Handler()
}

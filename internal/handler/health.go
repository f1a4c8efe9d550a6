package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe.
var Version = "1.0.0"

// PingFunc probes one dependency.
type PingFunc func(ctx context.Context) error

// EngineProbe is the part of the rating engine client the probes need.
type EngineProbe interface {
	Health(ctx context.Context) error
	State() string
}

type HealthHandler struct {
	db      PingFunc
	redis   PingFunc
	engine  EngineProbe
	startAt time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, engine EngineProbe) *HealthHandler {
	h := &HealthHandler{engine: engine, startAt: time.Now()}
	if pool != nil {
		h.db = pool.Ping
	}
	if rdb != nil {
		h.redis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return h
}

// Live handles GET /health/live, the liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. The database gates readiness; a missing
// cache or rating engine only degrades it, since stored reviews stay readable.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database": check(ctx, h.db),
		"redis":    check(ctx, h.redis),
	}
	var engineCheck fiber.Map
	if h.engine == nil {
		engineCheck = fiber.Map{"status": "disabled"}
	} else {
		engineCheck = check(ctx, h.engine.Health)
		engineCheck["breaker"] = h.engine.State()
	}
	checks["engine"] = engineCheck

	overallStatus := "healthy"
	if checks["redis"].(fiber.Map)["status"] == "down" || engineCheck["status"] == "down" {
		overallStatus = "degraded"
	}
	status := fiber.StatusOK
	if checks["database"].(fiber.Map)["status"] != "up" {
		overallStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	})
}

func check(ctx context.Context, ping PingFunc) fiber.Map {
	if ping == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

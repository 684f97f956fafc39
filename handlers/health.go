package handlers

import (
	"context"
	"time"

	"match-ticket-system/store"
	"match-ticket-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	Store store.Store
	Redis *redis.Client
}

// Health reports 503 when the store is unreachable. Redis is optional and
// only reported.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.Map{"status": "ok", "database": "ok"}
	code := fiber.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		status["status"], status["database"] = "degraded", err.Error()
		code = fiber.StatusServiceUnavailable
	}
	if h.Redis != nil {
		if err := utils.RedisHealthCheck(ctx, h.Redis); err != nil {
			status["redis"] = err.Error()
		} else {
			status["redis"] = "ok"
		}
	}
	return c.Status(code).JSON(status)
}

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

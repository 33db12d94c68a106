package handler

import (
	"context"
	"time"

	"github.com/Nischal-exe/Synapse/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthHandler struct {
	pool     *pgxpool.Pool
	registry *service.ChatRegistry
}

func NewHealthHandler(pool *pgxpool.Pool, registry *service.ChatRegistry) *HealthHandler {
	return &HealthHandler{pool: pool, registry: registry}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":           "ok",
		"live_connections": h.registry.OnlineCount(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "not ready", "error": "database unreachable"})
	}

	return c.JSON(fiber.Map{"status": "ready"})
}

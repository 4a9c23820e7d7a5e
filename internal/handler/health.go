package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/blogcaster/api/internal/config"
)

// Pinger is any dependency that can report liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	credentials config.Credentials
	redis       Pinger
	database    Pinger
	mirror      bool
	auth        bool
}

func NewHealthHandler(creds config.Credentials, redis, database Pinger, mirror, auth bool) *HealthHandler {
	return &HealthHandler{
		credentials: creds,
		redis:       redis,
		database:    database,
		mirror:      mirror,
		auth:        auth,
	}
}

// Check handles GET /health
// @Summary      Health check
// @Description  Reports credential presence and optional backend reachability
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	if !h.credentials.Complete() {
		status = "degraded"
	}

	body := fiber.Map{
		"status":      status,
		"credentials": h.credentials.Loaded(),
		"services": fiber.Map{
			"redis":    reachable(ctx, h.redis),
			"database": reachable(ctx, h.database),
			"r2":       h.mirror,
			"auth":     h.auth,
		},
	}
	if warning := h.credentials.Warning(); warning != "" {
		body["warning"] = warning
	}

	return c.JSON(body)
}

func reachable(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	return p.Ping(ctx) == nil
}

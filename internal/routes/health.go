package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthCheckTimeout = 2 * time.Second

// RegisterHealthRoutes mounts the health probe. It pings every configured
// backend and reports 503 when any of them is down.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		checks := fiber.Map{}
		healthy := true

		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			} else {
				checks["postgres"] = "ok"
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}
		if d.RPC != nil {
			if _, err := d.RPC.GetHealth(ctx); err != nil {
				checks["rpc"] = err.Error()
				healthy = false
			} else {
				checks["rpc"] = "ok"
			}
		}

		status := http.StatusOK
		body := fiber.Map{"status": "ok", "checks": checks}
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		return c.Status(status).JSON(body)
	})
}

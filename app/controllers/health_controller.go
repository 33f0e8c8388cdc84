package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoxPay/internal/pkg/cache"
	"github.com/ManuelReschke/FoxPay/internal/pkg/metrics/counter"
)

// HealthController reports whether the payment store (and cache) answer.
type HealthController struct {
	db      *gorm.DB
	webhook *counter.WebhookCounter
}

// NewHealthController accepts a nil counter.
func NewHealthController(db *gorm.DB, webhookCounter *counter.WebhookCounter) *HealthController {
	return &HealthController{db: db, webhook: webhookCounter}
}

func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{"database": "ok", "cache": "ok"}
	healthy := true

	sqlDB, err := hc.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unavailable"
		healthy = false
	}
	if cache.GetClient() == nil {
		checks["cache"] = "disabled"
	} else if err := cache.Ping(ctx); err != nil {
		checks["cache"] = "unavailable"
	}

	resp := fiber.Map{"healthy": healthy, "checks": checks}
	if hc.webhook != nil && checks["cache"] == "ok" {
		if counts, err := hc.webhook.Snapshot(ctx); err == nil {
			resp["webhook_outcomes"] = counts
		}
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

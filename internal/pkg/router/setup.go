package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/app/controllers"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Controllers bundles the handlers the routers need.
type Controllers struct {
	Checkout *controllers.CheckoutController
	Webhook  *controllers.WebhookController
	Payment  *controllers.PaymentController
	Health   *controllers.HealthController
}

// Options tunes the routers. LimiterStorage may be nil for in-memory limits.
type Options struct {
	LimiterStorage     fiber.Storage
	CheckoutMax        int
	CheckoutExpiration time.Duration
}

func InstallRouter(app *fiber.App, ctrls Controllers, opts Options) {
	setup(app, NewHttpRouter(ctrls, opts), NewApiRouter(ctrls))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

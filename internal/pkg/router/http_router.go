package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/FoxPay/app/controllers"
	"github.com/ManuelReschke/FoxPay/internal/pkg/constants"
)

type HttpRouter struct {
	ctrls Controllers
	opts  Options
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, h.ctrls.Health.HandleHealth)

	app.Post(constants.CreateCheckoutRoute, h.checkoutLimiter(), h.ctrls.Checkout.HandleCreateCheckoutSession)

	// The processor retries on its own schedule, so the webhook is not rate limited.
	app.Post(constants.WebhookRoute, h.ctrls.Webhook.HandleWebhook)
	app.All(constants.WebhookRoute, h.ctrls.Webhook.HandleMethodNotAllowed)

	app.Get(constants.PaymentSuccessRoute, h.ctrls.Payment.HandlePaymentSuccess)
	app.Get(constants.PaymentFailureRoute, h.ctrls.Payment.HandlePaymentFailure)
}

func (h HttpRouter) checkoutLimiter() fiber.Handler {
	if h.opts.CheckoutMax <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	expiration := h.opts.CheckoutExpiration
	if expiration <= 0 {
		expiration = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        h.opts.CheckoutMax,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "checkout:" + controllers.GetClientIP(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
		},
		Storage: h.opts.LimiterStorage,
	})
}

func NewHttpRouter(ctrls Controllers, opts Options) *HttpRouter {
	return &HttpRouter{ctrls: ctrls, opts: opts}
}

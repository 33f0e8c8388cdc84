package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/internal/pkg/constants"
)

type ApiRouter struct {
	ctrls Controllers
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	v1.Get(constants.APIConfigRoute, h.ctrls.Checkout.HandleConfig)
	v1.Get(constants.APIPaymentByIDRoute, h.ctrls.Payment.HandlePaymentStatus)
}

func NewApiRouter(ctrls Controllers) *ApiRouter {
	return &ApiRouter{ctrls: ctrls}
}

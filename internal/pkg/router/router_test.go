package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoxPay/app/controllers"
)

func newTestApp(opts Options) *fiber.App {
	app := fiber.New()
	InstallRouter(app, Controllers{
		Checkout: controllers.NewCheckoutController(nil, "pk_test"),
		Webhook:  controllers.NewWebhookController(nil),
		Payment:  controllers.NewPaymentController(nil),
		Health:   controllers.NewHealthController(nil, nil),
	}, opts)
	return app
}

func TestInstallRouterRegistersRoutes(t *testing.T) {
	app := newTestApp(Options{CheckoutMax: 5, CheckoutExpiration: time.Minute})

	registered := map[string]bool{}
	for _, r := range app.GetRoutes(true) {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /healthz",
		"POST /create-checkout-session",
		"POST /webhook",
		"GET /webhook",
		"GET /payment/success",
		"GET /payment/failure",
		"GET /api/v1/config",
		"GET /api/v1/payments/:session",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestWebhookRejectsOtherMethods(t *testing.T) {
	app := newTestApp(Options{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, "/webhook", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode, method)
	}
}

func TestConfigEndpoint(t *testing.T) {
	app := newTestApp(Options{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/config", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

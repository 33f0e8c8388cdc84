package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
)

// MaxWebhookBodyBytes is also the app body limit, so every delivery fiber
// accepts reaches the verifier and is acknowledged once authenticated.
const MaxWebhookBodyBytes = 1 << 20

const (
	stripeSignatureHeader = "Stripe-Signature"
	webhookTimeout        = 15 * time.Second
)

// WebhookController receives processor event deliveries.
type WebhookController struct {
	processor *payments.WebhookProcessor
}

func NewWebhookController(processor *payments.WebhookProcessor) *WebhookController {
	return &WebhookController{processor: processor}
}

// HandleWebhook acknowledges every authenticated, parseable event with 200,
// whether or not a payment matched, so the processor stops redelivering.
func (wc *WebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	if len(rawBody) > MaxWebhookBodyBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "payload_too_large"})
	}
	signature := c.Get(stripeSignatureHeader)

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	result, err := wc.processor.Process(ctx, rawBody, signature)
	if err != nil {
		logging.Component("webhook").WithError(err).Warn("rejected webhook delivery")
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"received":  true,
		"event_id":  result.EventID,
		"outcome":   result.Outcome,
		"duplicate": result.Duplicate,
	})
}

// HandleMethodNotAllowed answers non-POST requests on the webhook path.
func (wc *WebhookController) HandleMethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "method_not_allowed"})
}

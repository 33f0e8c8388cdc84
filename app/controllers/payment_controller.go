package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
)

// PaymentController serves the outcome views the customer returns to.
type PaymentController struct {
	status *payments.StatusService
}

func NewPaymentController(status *payments.StatusService) *PaymentController {
	return &PaymentController{status: status}
}

func (pc *PaymentController) HandlePaymentSuccess(c *fiber.Ctx) error {
	return pc.renderOutcome(c, "success")
}

func (pc *PaymentController) HandlePaymentFailure(c *fiber.Ctx) error {
	return pc.renderOutcome(c, "failure")
}

func (pc *PaymentController) renderOutcome(c *fiber.Ctx, page string) error {
	payment, err := pc.status.ResolveForPage(requestContext(c), c.Query("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{
		"page":    page,
		"payment": paymentView(payment),
	})
}

// HandlePaymentStatus returns the payment for a checkout session id.
func (pc *PaymentController) HandlePaymentStatus(c *fiber.Ctx) error {
	payment, err := pc.status.PaymentBySession(requestContext(c), c.Params("session"))
	if err != nil {
		if errors.Is(err, payments.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment_not_found"})
		}
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"payment": paymentView(payment)})
}

func paymentView(p *models.Payment) fiber.Map {
	if p == nil {
		return nil
	}
	view := fiber.Map{
		"id":          p.ID,
		"session_id":  p.SessionToken,
		"status":      p.Status,
		"amount":      p.Amount,
		"currency":    p.Currency,
		"description": p.Description,
		"created_at":  p.CreatedAt,
	}
	if p.PaymentMethod != "" {
		view["payment_method"] = p.PaymentMethod
	}
	if p.WebhookReceivedAt != nil {
		view["webhook_received_at"] = p.WebhookReceivedAt
	}
	return view
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

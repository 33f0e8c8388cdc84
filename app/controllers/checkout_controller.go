package controllers

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
)

// CheckoutController opens hosted checkout sessions.
type CheckoutController struct {
	checkout  *payments.CheckoutService
	publicKey string
}

func NewCheckoutController(checkout *payments.CheckoutService, publicKey string) *CheckoutController {
	return &CheckoutController{checkout: checkout, publicKey: publicKey}
}

type createCheckoutSessionBody struct {
	Email string `json:"email"`
}

// HandleCreateCheckoutSession expects {"email": "..."} and answers
// {"id", "url", "payment_id"}.
func (cc *CheckoutController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var body createCheckoutSessionBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
	}

	result, err := cc.checkout.CreateCheckoutSession(requestContext(c), payments.CheckoutRequest{
		Email:      body.Email,
		CustomerIP: GetClientIP(c),
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":         result.SessionToken,
		"url":        result.RedirectURL,
		"payment_id": result.RecordID,
	})
}

// HandleConfig exposes the publishable key the checkout page needs.
func (cc *CheckoutController) HandleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"publishable_key": cc.publicKey,
		"product": fiber.Map{
			"name":     payments.FixedProduct.Name,
			"amount":   payments.FixedProduct.UnitAmount,
			"currency": payments.FixedProduct.Currency,
			"display":  fmt.Sprintf("$%d.%02d", payments.FixedProduct.UnitAmount/100, payments.FixedProduct.UnitAmount%100),
		},
	})
}

package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
)

// GetClientIP determines the client address considering Cloudflare and
// standard proxy headers.
func GetClientIP(c *fiber.Ctx) string {
	// 1. Check for Cloudflare header
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	// 2. X-Forwarded-For can contain a list of IPs - the first one is the original client IP
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if clientIP := strings.TrimSpace(strings.Split(xff, ",")[0]); clientIP != "" {
			return clientIP
		}
	}

	// 3. No proxy headers, use the connection address
	ipAddr := c.IP()
	// IPv4 in IPv6 mapping (::ffff:192.168.1.1)
	if strings.HasPrefix(ipAddr, "::ffff:") && strings.Contains(ipAddr, ".") {
		return strings.TrimPrefix(ipAddr, "::ffff:")
	}
	return ipAddr
}

// statusForError maps the payment error taxonomy to an HTTP status and the
// error code sent to the caller.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, payments.ErrValidation):
		return fiber.StatusBadRequest, "invalid_request"
	case errors.Is(err, payments.ErrMalformedPayload):
		return fiber.StatusBadRequest, "invalid_payload"
	case errors.Is(err, payments.ErrBadSignature):
		return fiber.StatusBadRequest, "invalid_signature"
	case errors.Is(err, payments.ErrRecordNotFound):
		return fiber.StatusNotFound, "payment_not_found"
	case errors.Is(err, payments.ErrVerifierNotConfigured):
		return fiber.StatusInternalServerError, "webhook_not_configured"
	case errors.Is(err, payments.ErrCollaborator):
		return fiber.StatusInternalServerError, "payment_provider_error"
	case errors.Is(err, payments.ErrPersistence):
		return fiber.StatusInternalServerError, "payment_store_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status, code := statusForError(err)
	return c.Status(status).JSON(fiber.Map{"error": code})
}

// ErrorHandler is the fiber fallback for errors no handler converted. It keeps
// internals out of responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": strings.ToLower(strings.ReplaceAll(fe.Message, " ", "_"))})
	}

	logging.Component("http").WithError(err).WithField("path", c.Path()).Error("unhandled request error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
}

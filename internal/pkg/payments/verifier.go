package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// VerifierConfig is the explicit webhook authentication setup. AllowUnsigned
// enables the local/testing fallback that accepts unsigned payloads when no
// secret is configured.
type VerifierConfig struct {
	WebhookSecret string
	Tolerance     time.Duration
	AllowUnsigned bool
}

// Verifier authenticates and parses inbound processor webhooks.
type Verifier struct {
	secret        string
	tolerance     time.Duration
	allowUnsigned bool
	log           *logrus.Entry
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{
		secret:        strings.TrimSpace(cfg.WebhookSecret),
		tolerance:     tolerance,
		allowUnsigned: cfg.AllowUnsigned,
		log:           logging.Component("webhook_verifier"),
	}
}

// Signed reports whether deliveries are authenticated.
func (v *Verifier) Signed() bool {
	return v.secret != ""
}

// Verify checks the Stripe-Signature header against the exact raw payload and
// returns the parsed event. Nothing is parsed before the signature matched.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*Event, error) {
	if v.secret == "" {
		if !v.allowUnsigned {
			return nil, ErrVerifierNotConfigured
		}
		v.log.WithField("bytes", len(payload)).
			Warn("accepting unsigned webhook payload: STRIPE_WEBHOOK_SECRET is not set")
		return ParseEvent(payload)
	}

	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrBadSignature)
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return ParseEvent(payload)
}

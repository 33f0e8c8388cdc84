package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// StripeGatewayConfig carries the processor API credential. The key is kept
// on the client instance instead of stripe.Key.
type StripeGatewayConfig struct {
	SecretKey  string
	Timeout    time.Duration
	APIBaseURL string
}

// StripeGateway creates Stripe Checkout sessions.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:    &http.Client{Timeout: timeout},
		LeveledLogger: logging.Component("stripe"),
	}
	if cfg.APIBaseURL != "" {
		backendCfg.URL = stripe.String(cfg.APIBaseURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
	})
	return &StripeGateway{api: api}, nil
}

type sessionResult struct {
	session *stripe.CheckoutSession
	err     error
}

// CreateCheckoutSession opens a one-item payment-mode checkout. The call is
// abandoned when ctx ends; the HTTP client timeout bounds the request itself.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*ProviderSession, error) {
	params := checkoutSessionParams(req)

	done := make(chan sessionResult, 1)
	go func() {
		s, err := g.api.CheckoutSessions.New(params)
		done <- sessionResult{session: s, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &ProviderSession{ID: res.session.ID, URL: res.session.URL}, nil
	}
}

func checkoutSessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Product.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.Product.Name),
						Description: stripe.String(req.Product.Description),
					},
					UnitAmount: stripe.Int64(req.Product.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.Reference != "" {
		params.ClientReferenceID = stripe.String(req.Reference)
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{models.PaymentReferenceMetadataKey: req.Reference},
		}
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// Product is what a checkout session sells. FoxPay sells exactly one.
type Product struct {
	Name              string
	Description       string
	RecordDescription string
	UnitAmount        int64
	Currency          string
}

// FixedProduct is the single $20 product offered at checkout.
var FixedProduct = Product{
	Name:              "Fixed Payment",
	Description:       "Your $20 payment",
	RecordDescription: "Fixed $20 Payment",
	UnitAmount:        2000,
	Currency:          "usd",
}

// SessionRequest is sent to the processor to open a hosted checkout.
type SessionRequest struct {
	Product        Product
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	Reference      string
	IdempotencyKey string
}

// ProviderSession is the processor's answer: the session id becomes the
// payment's session token, URL is where the customer is sent.
type ProviderSession struct {
	ID  string
	URL string
}

// Gateway is the processor's checkout-session API.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*ProviderSession, error)
}

// CheckoutRequest is the validated input of a session creation.
type CheckoutRequest struct {
	Email      string `json:"email" validate:"max=254"`
	CustomerIP string `json:"-"`
}

// CheckoutResult is returned to the browser.
type CheckoutResult struct {
	SessionToken string
	RedirectURL  string
	RecordID     uint
}

type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

// CheckoutService opens processor sessions and records the pending payment.
type CheckoutService struct {
	gateway  Gateway
	repo     repository.PaymentRepository
	product  Product
	cfg      CheckoutConfig
	validate *validator.Validate
	log      *logrus.Entry
}

func NewCheckoutService(gateway Gateway, repo repository.PaymentRepository, cfg CheckoutConfig) *CheckoutService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &CheckoutService{
		gateway:  gateway,
		repo:     repo,
		product:  FixedProduct,
		cfg:      cfg,
		validate: validator.New(),
		log:      logging.Component("checkout"),
	}
}

// CreateCheckoutSession asks the processor for a session and inserts exactly
// one pending payment for it. If the processor call fails nothing is stored.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, in CheckoutRequest) (*CheckoutResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	reference := uuid.NewString()
	session, err := s.gateway.CreateCheckoutSession(callCtx, SessionRequest{
		Product:        s.product,
		CustomerEmail:  in.Email,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
		Reference:      reference,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.WithError(err).Warn("checkout session creation timed out")
		} else {
			s.log.WithError(err).Error("checkout session creation failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}
	if session == nil || strings.TrimSpace(session.ID) == "" {
		return nil, fmt.Errorf("%w: processor returned no session id", ErrCollaborator)
	}

	payment := &models.Payment{
		Variant:      models.PaymentVariantStripe,
		SessionToken: session.ID,
		Reference:    reference,
		Status:       models.PaymentStatusPending,
		Description:  s.product.RecordDescription,
		Amount:       s.product.UnitAmount,
		Currency:     strings.ToUpper(s.product.Currency),
		BillingEmail: in.Email,
		CustomerIP:   in.CustomerIP,
	}
	if err := payment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.log.WithError(err).WithField("session_token", session.ID).Error("failed to store pending payment")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.WithFields(logrus.Fields{
		"payment_id":    payment.ID,
		"session_token": payment.SessionToken,
	}).Info("checkout session created")

	return &CheckoutResult{
		SessionToken: session.ID,
		RedirectURL:  session.URL,
		RecordID:     payment.ID,
	}, nil
}

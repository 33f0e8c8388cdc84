package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// StatusCache keeps payments whose status can no longer change, so entries
// only expire.
type StatusCache interface {
	GetPayment(ctx context.Context, sessionToken string) (*models.Payment, bool)
	SetPayment(ctx context.Context, payment *models.Payment, ttl time.Duration) error
}

// StatusService answers "how did my payment go" for the pages the customer
// lands on after the hosted checkout.
type StatusService struct {
	repo  repository.PaymentRepository
	cache StatusCache
	ttl   time.Duration
	log   *logrus.Entry
}

// NewStatusService accepts a nil cache.
func NewStatusService(repo repository.PaymentRepository, cache StatusCache, ttl time.Duration) *StatusService {
	return &StatusService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   logging.Component("status"),
	}
}

// LatestPayment returns the most recently created payment, or nil when there
// is none.
func (s *StatusService) LatestPayment(ctx context.Context) (*models.Payment, error) {
	p, err := s.repo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return p, nil
}

// PaymentBySession returns the payment for a processor session token.
func (s *StatusService) PaymentBySession(ctx context.Context, sessionToken string) (*models.Payment, error) {
	token := strings.TrimSpace(sessionToken)
	if token == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}

	if s.cache != nil {
		if p, ok := s.cache.GetPayment(ctx, token); ok {
			return p, nil
		}
	}

	p, err := s.repo.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.cache != nil && p.IsFinal() && s.ttl > 0 {
		if err := s.cache.SetPayment(ctx, p, s.ttl); err != nil {
			s.log.WithError(err).Debug("could not cache payment status")
		}
	}
	return p, nil
}

// ResolveForPage picks the payment shown on the success and failure pages.
// The session id from the redirect wins; without one the most recent payment
// is shown.
func (s *StatusService) ResolveForPage(ctx context.Context, sessionToken string) (*models.Payment, error) {
	if strings.TrimSpace(sessionToken) != "" {
		p, err := s.PaymentBySession(ctx, sessionToken)
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return p, err
	}
	return s.LatestPayment(ctx)
}

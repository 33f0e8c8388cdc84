package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// Outcome describes what reconciling one event did.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
)

// transitionAttempts bounds how often a lost conditional update is retried
// against the re-read row.
const transitionAttempts = 2

// Reconciler applies verified processor events to payment records.
type Reconciler struct {
	repo repository.PaymentRepository
	now  func() time.Time
	log  *logrus.Entry
}

func NewReconciler(repo repository.PaymentRepository) *Reconciler {
	return &Reconciler{
		repo: repo,
		now:  time.Now,
		log:  logging.Component("reconciler"),
	}
}

type lookupKey int

const (
	bySessionToken lookupKey = iota
	byPaymentIntentID
)

type transitionRequest struct {
	key             lookupKey
	ref             string
	status          string
	paymentIntentID string
	paymentMethod   string
	// reference is tried when ref matches nothing under byPaymentIntentID.
	reference string
}

// Reconcile maps the event to one payment and advances its status. It is safe
// to call repeatedly with the same event.
func (r *Reconciler) Reconcile(ctx context.Context, ev *Event) (Outcome, error) {
	log := r.log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type})

	var req transitionRequest
	switch ev.Kind {
	case EventCheckoutSessionCompleted:
		req = transitionRequest{
			key:             bySessionToken,
			ref:             ev.ObjectID(),
			status:          models.PaymentStatusConfirmed,
			paymentIntentID: ev.PaymentIntentID(),
			paymentMethod:   ev.PaymentMethod(),
		}
	case EventCheckoutSessionExpired:
		req = transitionRequest{key: bySessionToken, ref: ev.ObjectID(), status: models.PaymentStatusExpired}
	case EventPaymentIntentPaymentFailed:
		req = transitionRequest{
			key:             byPaymentIntentID,
			ref:             ev.ObjectID(),
			status:          models.PaymentStatusFailed,
			paymentIntentID: ev.ObjectID(),
			reference:       ev.Metadata(models.PaymentReferenceMetadataKey),
		}
	case EventUnknown:
		log.Info("unhandled webhook event type")
		return OutcomeIgnored, nil
	default:
		log.Warnf("event kind %d has no reconciliation rule", ev.Kind)
		return OutcomeIgnored, nil
	}

	if req.ref == "" {
		log.Warn("webhook event without object id")
		return OutcomeNotFound, ErrMissingReference
	}
	log = log.WithField("ref", req.ref)

	outcome, err := r.apply(ctx, ev.ID, req)
	switch {
	case err == nil:
		log.WithField("outcome", outcome).Info("webhook event reconciled")
	case errors.Is(err, ErrRecordNotFound):
		log.Warn("no payment matches webhook event")
	case errors.Is(err, ErrTransitionConflict):
		log.WithError(err).Warn("webhook event conflicts with terminal payment status")
	default:
		log.WithError(err).Error("webhook event could not be reconciled")
	}
	return outcome, err
}

func (r *Reconciler) apply(ctx context.Context, eventID string, req transitionRequest) (Outcome, error) {
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		var outcome Outcome
		err := r.repo.Transaction(ctx, func(tx repository.PaymentRepository) error {
			payment, err := lockPayment(ctx, tx, req)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					outcome = OutcomeNotFound
					return ErrRecordNotFound
				}
				outcome = OutcomeFailed
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}

			switch decideTransition(payment.Status, req.status) {
			case transitionNoop:
				outcome = OutcomeUnchanged
				return nil
			case transitionReject:
				outcome = OutcomeConflict
				return fmt.Errorf("%w: payment %d is %s, event wants %s",
					ErrTransitionConflict, payment.ID, payment.Status, req.status)
			}

			changed, err := tx.ApplyTransition(ctx, payment.ID, payment.Status, repository.PaymentTransition{
				Status:            req.status,
				PaymentIntentID:   req.paymentIntentID,
				PaymentMethod:     req.paymentMethod,
				LastEventID:       eventID,
				WebhookReceivedAt: r.now(),
			})
			if err != nil {
				outcome = OutcomeFailed
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			if changed {
				outcome = OutcomeApplied
			}
			return nil
		})
		if err != nil {
			if !errors.Is(err, ErrRecordNotFound) && !errors.Is(err, ErrTransitionConflict) && !errors.Is(err, ErrPersistence) {
				err = fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			if errors.Is(err, ErrPersistence) {
				outcome = OutcomeFailed
			}
			return outcome, err
		}
		if outcome != "" {
			return outcome, nil
		}
	}
	return OutcomeFailed, fmt.Errorf("%w: concurrent updates kept winning for %s", ErrPersistence, req.ref)
}

func lockPayment(ctx context.Context, tx repository.PaymentRepository, req transitionRequest) (*models.Payment, error) {
	if req.key != byPaymentIntentID {
		return tx.LockBySessionToken(ctx, req.ref)
	}
	payment, err := tx.LockByPaymentIntentID(ctx, req.ref)
	if errors.Is(err, gorm.ErrRecordNotFound) && req.reference != "" {
		return tx.LockByReference(ctx, req.reference)
	}
	return payment, err
}

type transitionDecision int

const (
	transitionApply transitionDecision = iota
	transitionNoop
	transitionReject
)

// decideTransition: pending payments move to any terminal status. A failed
// attempt can still be followed by a successful one in the same session, so
// failed gives way to confirmed. Confirmed and expired never change. The
// event that produced the current status is a no-op.
func decideTransition(current, target string) transitionDecision {
	switch {
	case current == target:
		return transitionNoop
	case current == models.PaymentStatusPending:
		return transitionApply
	case current == models.PaymentStatusFailed && target == models.PaymentStatusConfirmed:
		return transitionApply
	default:
		return transitionReject
	}
}

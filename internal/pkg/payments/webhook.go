package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// PayloadArchiver keeps a copy of verified webhook payloads.
type PayloadArchiver interface {
	Archive(ctx context.Context, ev *Event) error
}

// OutcomeRecorder counts reconciliation outcomes per event type.
type OutcomeRecorder interface {
	Add(ctx context.Context, eventType, outcome string) error
}

// WebhookResult is what the webhook endpoint acknowledges.
type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   Outcome
	Duplicate bool
}

// WebhookProcessor runs one delivery through verification, the delivery log
// and the reconciler.
type WebhookProcessor struct {
	verifier   *Verifier
	reconciler *Reconciler
	events     repository.WebhookEventRepository
	archiver   PayloadArchiver
	recorder   OutcomeRecorder
	log        *logrus.Entry
}

// NewWebhookProcessor accepts nil events and archiver.
func NewWebhookProcessor(verifier *Verifier, reconciler *Reconciler, events repository.WebhookEventRepository, archiver PayloadArchiver) *WebhookProcessor {
	return &WebhookProcessor{
		verifier:   verifier,
		reconciler: reconciler,
		events:     events,
		archiver:   archiver,
		log:        logging.Component("webhook"),
	}
}

// RecordOutcomes makes the processor count every outcome with r.
func (p *WebhookProcessor) RecordOutcomes(r OutcomeRecorder) {
	p.recorder = r
}

// Process returns an error only when the delivery could not be authenticated
// or parsed. Reconciliation problems are logged and recorded on the delivery
// so the processor is not pushed into redelivering.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	ev, err := p.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return nil, err
	}

	result := &WebhookResult{EventID: ev.ID, EventType: ev.Type}
	log := p.log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type})

	stored := p.recordDelivery(ctx, ev, log)
	if stored != nil && stored.duplicate && stored.event.WasProcessedCleanly() {
		log.Info("duplicate webhook delivery, already processed")
		result.Duplicate = true
		result.Outcome = OutcomeUnchanged
		p.record(ctx, ev, "duplicate", log)
		return result, nil
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to archive webhook payload")
		}
	}

	outcome, reconcileErr := p.reconciler.Reconcile(ctx, ev)
	result.Outcome = outcome
	p.record(ctx, ev, outcome, log)

	if stored != nil {
		msg := ""
		if reconcileErr != nil {
			msg = reconcileErr.Error()
		}
		if err := p.events.MarkProcessed(ctx, stored.event.ID, msg); err != nil {
			log.WithError(err).Error("failed to mark webhook delivery processed")
		}
	}
	if errors.Is(reconcileErr, ErrPersistence) {
		log.WithError(reconcileErr).Error("payment store unavailable while reconciling webhook")
	}
	return result, nil
}

func (p *WebhookProcessor) record(ctx context.Context, ev *Event, outcome Outcome, log *logrus.Entry) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Add(ctx, ev.Type, string(outcome)); err != nil {
		log.WithError(err).Debug("could not count webhook outcome")
	}
}

type storedDelivery struct {
	event     *models.PaymentWebhookEvent
	duplicate bool
}

func (p *WebhookProcessor) recordDelivery(ctx context.Context, ev *Event, log *logrus.Entry) *storedDelivery {
	if p.events == nil {
		return nil
	}

	created, stored, err := p.events.CreateIfNotExists(ctx, &models.PaymentWebhookEvent{
		Provider:        models.WebhookProviderStripe,
		ProviderEventID: deliveryID(ev),
		EventType:       ev.Type,
		PayloadJSON:     string(ev.Raw),
		SignatureValid:  p.verifier.Signed(),
	})
	if err != nil {
		log.WithError(err).Error("failed to record webhook delivery")
		return nil
	}
	return &storedDelivery{event: stored, duplicate: !created}
}

// deliveryID is the processor event id, or a payload hash for events that
// arrive without one.
func deliveryID(ev *Event) string {
	if id := strings.TrimSpace(ev.ID); id != "" {
		return id
	}
	sum := sha256.Sum256(ev.Raw)
	return "hash:" + hex.EncodeToString(sum[:])
}

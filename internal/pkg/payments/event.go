package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/FoxPay/app/models"
)

// EventKind is the closed set of processor events the reconciler models.
// Everything else parses to EventUnknown.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutSessionCompleted
	EventCheckoutSessionExpired
	EventPaymentIntentPaymentFailed
)

func ParseEventKind(eventType string) EventKind {
	switch stripe.EventType(strings.TrimSpace(eventType)) {
	case stripe.EventTypeCheckoutSessionCompleted:
		return EventCheckoutSessionCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		return EventCheckoutSessionExpired
	case stripe.EventTypePaymentIntentPaymentFailed:
		return EventPaymentIntentPaymentFailed
	default:
		return EventUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case EventCheckoutSessionCompleted:
		return string(stripe.EventTypeCheckoutSessionCompleted)
	case EventCheckoutSessionExpired:
		return string(stripe.EventTypeCheckoutSessionExpired)
	case EventPaymentIntentPaymentFailed:
		return string(stripe.EventTypePaymentIntentPaymentFailed)
	default:
		return "unknown"
	}
}

// TargetStatus is the payment status an event of this kind moves a pending
// payment to. Unknown kinds have none.
func (k EventKind) TargetStatus() (string, bool) {
	switch k {
	case EventCheckoutSessionCompleted:
		return models.PaymentStatusConfirmed, true
	case EventCheckoutSessionExpired:
		return models.PaymentStatusExpired, true
	case EventPaymentIntentPaymentFailed:
		return models.PaymentStatusFailed, true
	default:
		return "", false
	}
}

// Event is a verified webhook delivery. Object is data.object as sent by the
// processor; its shape depends on Type.
type Event struct {
	ID      string
	Type    string
	Kind    EventKind
	Created time.Time
	Object  map[string]interface{}
	Raw     []byte
}

// ParseEvent decodes a webhook envelope. A body that is not JSON, or that has
// no event type, is malformed.
func ParseEvent(payload []byte) (*Event, error) {
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	eventType := strings.TrimSpace(string(raw.Type))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	ev := &Event{
		ID:     strings.TrimSpace(raw.ID),
		Type:   eventType,
		Kind:   ParseEventKind(eventType),
		Object: map[string]interface{}{},
		Raw:    payload,
	}
	if raw.Created > 0 {
		ev.Created = time.Unix(raw.Created, 0).UTC()
	}
	if raw.Data != nil && raw.Data.Object != nil {
		ev.Object = raw.Data.Object
	}
	return ev, nil
}

// ObjectID is data.object.id: the checkout session id for checkout.session.*
// events and the payment intent id for payment_intent.* events.
func (e *Event) ObjectID() string {
	return stringField(e.Object, "id")
}

// PaymentIntentID reads data.object.payment_intent, which is either an id or
// an expanded payment intent object.
func (e *Event) PaymentIntentID() string {
	switch v := e.Object["payment_intent"].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return stringField(v, "id")
	default:
		return ""
	}
}

// PaymentMethod is the first entry of data.object.payment_method_types,
// falling back to card.
func (e *Event) PaymentMethod() string {
	types, ok := e.Object["payment_method_types"].([]interface{})
	if ok {
		for _, t := range types {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return models.DefaultPaymentMethod
}

// Metadata reads data.object.metadata[key].
func (e *Event) Metadata(key string) string {
	md, _ := e.Object["metadata"].(map[string]interface{})
	return stringField(md, key)
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

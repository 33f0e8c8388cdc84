package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

const (
	PaymentVariantStripe = "stripe"

	// PaymentReferenceMetadataKey names the payment intent metadata entry
	// that carries Payment.Reference.
	PaymentReferenceMetadataKey = "payment_reference"

	DefaultPaymentMethod = "card"
)

// Payment is one checkout attempt at the payment processor. SessionToken is
// issued by the processor and is the primary reconciliation key, while
// PaymentIntentID only becomes known once the session completed. Reference
// is ours; it travels to the processor in the payment intent metadata so
// payment intent events can find the record before the session completed.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Variant           string     `gorm:"type:varchar(20);not null;default:'stripe'" json:"variant"`
	SessionToken      string     `gorm:"type:varchar(100);not null;uniqueIndex:ux_payments_session_token" json:"session_token" validate:"required,max=100"`
	Reference         string     `gorm:"type:varchar(36);not null;default:'';index" json:"reference,omitempty"`
	PaymentIntentID   string     `gorm:"type:varchar(100);not null;default:'';index" json:"payment_intent_id,omitempty"`
	PaymentMethod     string     `gorm:"type:varchar(50);not null;default:''" json:"payment_method,omitempty"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending confirmed failed expired"`
	Description       string     `gorm:"type:varchar(255)" json:"description"`
	Amount            int64      `gorm:"not null" json:"amount" validate:"gt=0"`
	Currency          string     `gorm:"type:varchar(3);not null" json:"currency" validate:"len=3"`
	BillingEmail      string     `gorm:"type:varchar(254)" json:"billing_email,omitempty" validate:"max=254"`
	CustomerIP        string     `gorm:"type:varchar(45)" json:"-"`
	LastEventID       string     `gorm:"type:varchar(100)" json:"-"`
	WebhookReceivedAt *time.Time `gorm:"type:timestamp;default:null" json:"webhook_received_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// IsTerminal reports whether the payment left the pending state.
func (p *Payment) IsTerminal() bool {
	return IsTerminalPaymentStatus(p.Status)
}

// IsFinal reports whether the status can no longer change. A failed payment
// is terminal but not final: a later attempt in the same session may succeed.
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusConfirmed || p.Status == PaymentStatusExpired
}

func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

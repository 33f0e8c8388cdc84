package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/FoxPay/app/models"
	"gorm.io/gorm"
)

// PaymentTransition describes the columns written when a webhook event moves
// a payment to a new status.
type PaymentTransition struct {
	Status            string
	PaymentIntentID   string
	PaymentMethod     string
	LastEventID       string
	WebhookReceivedAt time.Time
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetBySessionToken(ctx context.Context, token string) (*models.Payment, error)
	GetLatest(ctx context.Context) (*models.Payment, error)
	Count(ctx context.Context) (int64, error)

	// The Lock* methods read a row with a row-level write lock. They only make sense inside Transaction.
	LockBySessionToken(ctx context.Context, token string) (*models.Payment, error)
	LockByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Payment, error)
	LockByReference(ctx context.Context, reference string) (*models.Payment, error)

	// ApplyTransition writes t only if the row still has fromStatus and
	// reports whether a row was changed.
	ApplyTransition(ctx context.Context, id uint, fromStatus string, t PaymentTransition) (bool, error)

	// Transaction runs fn with a repository bound to a single DB transaction.
	Transaction(ctx context.Context, fn func(tx PaymentRepository) error) error
}

// WebhookEventRepository defines the interface for the webhook delivery log
type WebhookEventRepository interface {
	CreateIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, processingError string) error
	GetByProviderEventID(ctx context.Context, provider, providerEventID string) (*models.PaymentWebhookEvent, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:      NewPaymentRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

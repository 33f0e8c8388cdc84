package repository

import (
	"context"

	"github.com/ManuelReschke/FoxPay/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a new payment record
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetBySessionToken retrieves a payment by the processor session id
func (r *paymentRepository) GetBySessionToken(ctx context.Context, token string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetLatest retrieves the most recently created payment
func (r *paymentRepository) GetLatest(ctx context.Context) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Count returns the total number of payments
func (r *paymentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).Count(&count).Error
	return count, err
}

func (r *paymentRepository) LockBySessionToken(ctx context.Context, token string) (*models.Payment, error) {
	return r.lockWhere(ctx, "session_token = ?", token)
}

func (r *paymentRepository) LockByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Payment, error) {
	return r.lockWhere(ctx, "payment_intent_id = ?", paymentIntentID)
}

func (r *paymentRepository) LockByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return r.lockWhere(ctx, "reference = ?", reference)
}

func (r *paymentRepository) lockWhere(ctx context.Context, query string, arg string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, arg).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ApplyTransition(ctx context.Context, id uint, fromStatus string, t PaymentTransition) (bool, error) {
	updates := map[string]interface{}{
		"status":              t.Status,
		"last_event_id":       t.LastEventID,
		"webhook_received_at": t.WebhookReceivedAt,
		"updated_at":          t.WebhookReceivedAt,
	}
	if t.PaymentIntentID != "" {
		updates["payment_intent_id"] = t.PaymentIntentID
	}
	if t.PaymentMethod != "" {
		updates["payment_method"] = t.PaymentMethod
	}

	tx := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *paymentRepository) Transaction(ctx context.Context, fn func(tx PaymentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&paymentRepository{db: tx})
	})
}

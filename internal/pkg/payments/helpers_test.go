package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ManuelReschke/FoxPay/app/models"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/database"
)

// newTestDB opens a private in-memory database with the payment schema.
// A single connection serialises transactions the way row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.NewRepositories(newTestDB(t))
}

func createPayment(t *testing.T, repo repository.PaymentRepository, token, status string) *models.Payment {
	t.Helper()
	return createPaymentWithReference(t, repo, token, "", status)
}

func createPaymentWithReference(t *testing.T, repo repository.PaymentRepository, token, reference, status string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		Variant:      models.PaymentVariantStripe,
		SessionToken: token,
		Reference:    reference,
		Status:       status,
		Description:  FixedProduct.RecordDescription,
		Amount:       FixedProduct.UnitAmount,
		Currency:     "USD",
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// eventPayload builds a Stripe webhook envelope.
func eventPayload(t *testing.T, id, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     1700000000,
		"api_version": "2025-07-30.basil",
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return body
}

func sessionCompleted(t *testing.T, eventID, sessionID, paymentIntentID string) []byte {
	return eventPayload(t, eventID, "checkout.session.completed", map[string]interface{}{
		"id":                   sessionID,
		"object":               "checkout.session",
		"payment_intent":       paymentIntentID,
		"payment_method_types": []string{"card"},
	})
}

func sessionExpired(t *testing.T, eventID, sessionID string) []byte {
	return eventPayload(t, eventID, "checkout.session.expired", map[string]interface{}{
		"id":     sessionID,
		"object": "checkout.session",
	})
}

func paymentFailed(t *testing.T, eventID, paymentIntentID string) []byte {
	return eventPayload(t, eventID, "payment_intent.payment_failed", map[string]interface{}{
		"id":     paymentIntentID,
		"object": "payment_intent",
	})
}

// paymentFailedWithReference is a failure for a payment intent created by one
// of our checkout sessions: the intent metadata carries the record reference.
func paymentFailedWithReference(t *testing.T, eventID, paymentIntentID, reference string) []byte {
	return eventPayload(t, eventID, "payment_intent.payment_failed", map[string]interface{}{
		"id":       paymentIntentID,
		"object":   "payment_intent",
		"metadata": map[string]string{models.PaymentReferenceMetadataKey: reference},
	})
}

func mustParse(t *testing.T, payload []byte) *Event {
	t.Helper()
	ev, err := ParseEvent(payload)
	require.NoError(t, err)
	return ev
}

package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoxPay/app/models"
)

type memoryStatusCache struct {
	entries map[string]models.Payment
	sets    int
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{entries: map[string]models.Payment{}}
}

func (c *memoryStatusCache) GetPayment(ctx context.Context, sessionToken string) (*models.Payment, bool) {
	p, ok := c.entries[sessionToken]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *memoryStatusCache) SetPayment(ctx context.Context, payment *models.Payment, ttl time.Duration) error {
	c.sets++
	c.entries[payment.SessionToken] = *payment
	return nil
}

func TestLatestPayment(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewStatusService(repos.Payment, nil, 0)

	p, err := svc.LatestPayment(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	createPayment(t, repos.Payment, "cs_old", models.PaymentStatusConfirmed)
	createPayment(t, repos.Payment, "cs_new", models.PaymentStatusPending)

	p, err = svc.LatestPayment(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "cs_new", p.SessionToken)
}

func TestPaymentBySession(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewStatusService(repos.Payment, nil, 0)
	createPayment(t, repos.Payment, "cs_1", models.PaymentStatusPending)

	p, err := svc.PaymentBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	_, err = svc.PaymentBySession(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.PaymentBySession(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentBySession_CachesOnlyTerminalPayments(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	cache := newMemoryStatusCache()
	svc := NewStatusService(repos.Payment, cache, time.Minute)
	createPayment(t, repos.Payment, "cs_pending", models.PaymentStatusPending)
	createPayment(t, repos.Payment, "cs_done", models.PaymentStatusConfirmed)

	_, err := svc.PaymentBySession(ctx, "cs_pending")
	require.NoError(t, err)
	assert.Zero(t, cache.sets)

	_, err = svc.PaymentBySession(ctx, "cs_done")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// served from cache
	_, err = svc.PaymentBySession(ctx, "cs_done")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// failed may still become confirmed
	createPayment(t, repos.Payment, "cs_failed", models.PaymentStatusFailed)
	_, err = svc.PaymentBySession(ctx, "cs_failed")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestPaymentBySession_PendingReflectsReconciliation(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewStatusService(repos.Payment, newMemoryStatusCache(), time.Minute)
	createPayment(t, repos.Payment, "cs_1", models.PaymentStatusPending)

	p, err := svc.PaymentBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	_, err = NewReconciler(repos.Payment).Reconcile(ctx, mustParse(t, sessionCompleted(t, "evt_1", "cs_1", "pi_1")))
	require.NoError(t, err)

	p, err = svc.PaymentBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, p.Status)
}

func TestResolveForPage(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewStatusService(repos.Payment, nil, 0)
	createPayment(t, repos.Payment, "cs_1", models.PaymentStatusFailed)
	createPayment(t, repos.Payment, "cs_2", models.PaymentStatusPending)

	p, err := svc.ResolveForPage(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", p.SessionToken)

	p, err = svc.ResolveForPage(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "cs_2", p.SessionToken)

	p, err = svc.ResolveForPage(ctx, "cs_unknown")
	require.NoError(t, err)
	assert.Nil(t, p)
}

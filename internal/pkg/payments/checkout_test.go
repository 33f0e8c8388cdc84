package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoxPay/app/models"
)

type fakeGateway struct {
	session *ProviderSession
	err     error
	delay   time.Duration
	calls   []SessionRequest
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*ProviderSession, error) {
	f.calls = append(f.calls, req)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.session, f.err
}

var testCheckoutConfig = CheckoutConfig{
	SuccessURL: "https://pay.example.com/payment/success?session_id={CHECKOUT_SESSION_ID}",
	CancelURL:  "https://pay.example.com/payment/failure",
	Timeout:    time.Second,
}

func TestCreateCheckoutSession_StoresOnePendingPayment(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	gw := &fakeGateway{session: &ProviderSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	svc := NewCheckoutService(gw, repos.Payment, testCheckoutConfig)

	res, err := svc.CreateCheckoutSession(ctx, CheckoutRequest{Email: " buyer@example.com ", CustomerIP: "203.0.113.7"})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionToken)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", res.RedirectURL)
	assert.NotZero(t, res.RecordID)

	count, err := repos.Payment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	p, err := repos.Payment.GetBySessionToken(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, res.RecordID, p.ID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, models.PaymentVariantStripe, p.Variant)
	assert.Equal(t, int64(2000), p.Amount)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "Fixed $20 Payment", p.Description)
	assert.Equal(t, "buyer@example.com", p.BillingEmail)
	assert.Equal(t, "203.0.113.7", p.CustomerIP)
	assert.Len(t, p.Reference, 36)

	require.Len(t, gw.calls, 1)
	call := gw.calls[0]
	assert.Equal(t, FixedProduct, call.Product)
	assert.Equal(t, "buyer@example.com", call.CustomerEmail)
	assert.Equal(t, testCheckoutConfig.SuccessURL, call.SuccessURL)
	assert.Equal(t, testCheckoutConfig.CancelURL, call.CancelURL)
	assert.NotEmpty(t, call.IdempotencyKey)
	assert.Equal(t, p.Reference, call.Reference)
}

func TestCreateCheckoutSession_EachCallGetsItsOwnRecord(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	gw := &fakeGateway{}
	svc := NewCheckoutService(gw, repos.Payment, testCheckoutConfig)

	for _, id := range []string{"cs_a", "cs_b"} {
		gw.session = &ProviderSession{ID: id}
		_, err := svc.CreateCheckoutSession(ctx, CheckoutRequest{})
		require.NoError(t, err)
	}

	count, err := repos.Payment.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NotEqual(t, gw.calls[0].IdempotencyKey, gw.calls[1].IdempotencyKey)
	assert.NotEqual(t, gw.calls[0].Reference, gw.calls[1].Reference)
}

func TestCreateCheckoutSession_GatewayFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewCheckoutService(&fakeGateway{err: errors.New("card_declined")}, repos.Payment, testCheckoutConfig)

	res, err := svc.CreateCheckoutSession(ctx, CheckoutRequest{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCollaborator)

	count, err := repos.Payment.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateCheckoutSession_EmptySessionID(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCheckoutService(&fakeGateway{session: &ProviderSession{ID: " "}}, repos.Payment, testCheckoutConfig)

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrCollaborator)
}

func TestCreateCheckoutSession_Timeout(t *testing.T) {
	repos := newTestRepos(t)
	cfg := testCheckoutConfig
	cfg.Timeout = 20 * time.Millisecond
	gw := &fakeGateway{session: &ProviderSession{ID: "cs_late"}, delay: time.Second}
	svc := NewCheckoutService(gw, repos.Payment, cfg)

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrCollaborator)
	assert.ErrorContains(t, err, context.DeadlineExceeded.Error())

	count, err := repos.Payment.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateCheckoutSession_RejectsOverlongEmail(t *testing.T) {
	repos := newTestRepos(t)
	gw := &fakeGateway{session: &ProviderSession{ID: "cs_1"}}
	svc := NewCheckoutService(gw, repos.Payment, testCheckoutConfig)

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutRequest{Email: strings.Repeat("a", 250) + "@x.io"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, gw.calls)
}

func TestCreateCheckoutSession_DuplicateSessionIsPersistenceError(t *testing.T) {
	repos := newTestRepos(t)
	createPayment(t, repos.Payment, "cs_dup", models.PaymentStatusPending)
	svc := NewCheckoutService(&fakeGateway{session: &ProviderSession{ID: "cs_dup"}}, repos.Payment, testCheckoutConfig)

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, ErrPersistence)
}

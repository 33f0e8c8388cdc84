package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedHeader(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}

func TestVerifier_ValidSignature(t *testing.T) {
	v := NewVerifier(VerifierConfig{WebhookSecret: testWebhookSecret})
	payload := sessionCompleted(t, "evt_1", "cs_1", "pi_1")

	ev, err := v.Verify(payload, signedHeader(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.True(t, v.Signed())
}

func TestVerifier_RejectsBadSignatures(t *testing.T) {
	v := NewVerifier(VerifierConfig{WebhookSecret: testWebhookSecret, Tolerance: 5 * time.Minute})
	payload := sessionCompleted(t, "evt_1", "cs_1", "pi_1")

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"missing header", payload, ""},
		{"garbage header", payload, "not-a-signature"},
		{"wrong secret", payload, signedHeader(payload, "whsec_other", time.Now())},
		{"tampered payload", append([]byte(nil), sessionCompleted(t, "evt_1", "cs_other", "pi_1")...), signedHeader(payload, testWebhookSecret, time.Now())},
		{"stale timestamp", payload, signedHeader(payload, testWebhookSecret, time.Now().Add(-time.Hour))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.payload, tt.header)
			assert.ErrorIs(t, err, ErrBadSignature)
		})
	}
}

func TestVerifier_SignedButMalformed(t *testing.T) {
	v := NewVerifier(VerifierConfig{WebhookSecret: testWebhookSecret})
	payload := []byte(`{"id":"evt_1"}`)

	_, err := v.Verify(payload, signedHeader(payload, testWebhookSecret, time.Now()))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestVerifier_NoSecret(t *testing.T) {
	payload := sessionExpired(t, "evt_1", "cs_1")

	_, err := NewVerifier(VerifierConfig{}).Verify(payload, "")
	assert.ErrorIs(t, err, ErrVerifierNotConfigured)

	v := NewVerifier(VerifierConfig{AllowUnsigned: true})
	ev, err := v.Verify(payload, "")
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutSessionExpired, ev.Kind)
	assert.False(t, v.Signed())

	_, err = v.Verify([]byte("{"), "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

package payments

import "errors"

// Error taxonomy shared by the checkout, webhook and status paths. Callers
// match with errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrValidation            = errors.New("invalid request")
	ErrBadSignature          = errors.New("webhook signature verification failed")
	ErrMalformedPayload      = errors.New("malformed webhook payload")
	ErrVerifierNotConfigured = errors.New("webhook verification is not configured")
	ErrCollaborator          = errors.New("payment processor request failed")
	ErrRecordNotFound        = errors.New("payment record not found")
	ErrMissingReference      = errors.New("event carries no payment reference")
	ErrTransitionConflict    = errors.New("payment status cannot move to the event status")
	ErrPersistence           = errors.New("payment store failure")
)

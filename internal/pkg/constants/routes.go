package constants

// Route constants
const (
	PublicRoute         = "/"
	CreateCheckoutRoute = "/create-checkout-session"
	WebhookRoute        = "/webhook"
	PaymentSuccessRoute = "/payment/success"
	PaymentFailureRoute = "/payment/failure"
	HealthRoute         = "/healthz"
	MetricsRoute        = "/metrics"
	APIRoute            = "/api"
	APIConfigRoute      = "/config"
	APIPaymentByIDRoute = "/payments/:session"
)

package stripe

import "encoding/json"

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"

	PaymentStatusPaid = "paid"
)

// CheckoutSession is the subset of Stripe's checkout session object the
// fulfillment flow consumes. The order fields travel in the session metadata
// set when the session was created by the storefront.
type CheckoutSession struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

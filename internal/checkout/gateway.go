package checkout

import "context"

// PaymentGateway is the hosted payment widget. Load is idempotent and only
// touches the network until it first succeeds. The channel returned by Open
// delivers exactly one outcome. Dismiss closes an open session as if the
// patient had closed the widget; it reports CodeNotFound once the session
// has already delivered its outcome.
type PaymentGateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, descriptor SessionDescriptor) (<-chan GatewayOutcome, error)
	Dismiss(ctx context.Context, orderID string) error
}

// SessionDescriptor carries everything the widget needs to render a payment
// for one pending order.
type SessionDescriptor struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image,omitempty"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type Theme struct {
	Color string `json:"color,omitempty"`
}

// GatewayResponse is what the widget hands back after a successful payment.
type GatewayResponse struct {
	OrderID   string `json:"razorpay_order_id" validate:"required,gateway_ref"`
	PaymentID string `json:"razorpay_payment_id" validate:"required,gateway_ref"`
	Signature string `json:"razorpay_signature" validate:"required,gateway_ref"`
}

type OutcomeKind string

const (
	OutcomeConfirmed OutcomeKind = "confirmed"
	OutcomeDismissed OutcomeKind = "dismissed"
)

// GatewayOutcome is Confirmed with a response, or Dismissed.
type GatewayOutcome struct {
	Kind     OutcomeKind
	Response GatewayResponse
}

func Confirmed(resp GatewayResponse) GatewayOutcome {
	return GatewayOutcome{Kind: OutcomeConfirmed, Response: resp}
}

func Dismissed() GatewayOutcome {
	return GatewayOutcome{Kind: OutcomeDismissed}
}

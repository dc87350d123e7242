package checkout

import (
	"context"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
)

// DefaultCurrency is the only currency the pharmacy sells in.
const DefaultCurrency = "INR"

// PendingOrder is the gateway order acknowledged by the backend. Amount is in
// paise.
type PendingOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentConfirmation is sent once to the verifier and never retried.
type PaymentConfirmation struct {
	OrderID     string      `json:"razorpay_order_id"`
	PaymentID   string      `json:"razorpay_payment_id"`
	Signature   string      `json:"razorpay_signature"`
	Items       []cart.Line `json:"cart_items"`
	Username    string      `json:"username"`
	TotalAmount int64       `json:"total_amount"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, amount int64) (PendingOrder, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, confirmation PaymentConfirmation) error
}

// Report describes an attempt that stopped moving: a terminal state or a
// dismissal back to Idle.
type Report struct {
	AttemptID string
	Username  string
	State     State
	OrderID   string
	PaymentID string
	// Amount is the cart total in whole rupees, the same unit as
	// PaymentConfirmation.TotalAmount. The gateway order carries paise.
	Amount     int64
	Items      []cart.Line
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Observer is told about every finished attempt. Implementations must not
// block for long; they run on the attempt's goroutine.
type Observer interface {
	AttemptFinished(ctx context.Context, report Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, report Report)

func (f ObserverFunc) AttemptFinished(ctx context.Context, report Report) {
	f(ctx, report)
}

// PhaseRecorder times the network-bound phases of an attempt.
type PhaseRecorder interface {
	ObservePhase(phase string, success bool, duration time.Duration)
}

const (
	PhaseGatewayLoad = "gateway_load"
	PhaseCreateOrder = "create_order"
	PhaseVerify      = "verify_payment"
)

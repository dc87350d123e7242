package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
)

// Attempt is one run through the checkout protocol.
type Attempt struct {
	id       string
	username string

	mu         sync.RWMutex
	state      State
	order      PendingOrder
	descriptor SessionDescriptor
	paymentID  string
	amount     int64
	err        error
	startedAt  time.Time
	finishedAt time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// View is a read-only copy of an attempt for callers outside the package.
type View struct {
	ID         string             `json:"id"`
	State      State              `json:"state"`
	OrderID    string             `json:"order_id,omitempty"`
	Amount     int64              `json:"amount"`
	Currency   string             `json:"currency,omitempty"`
	Receipt    string             `json:"receipt,omitempty"`
	Descriptor *SessionDescriptor `json:"gateway,omitempty"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

func newAttempt(id, username string, amount int64, now time.Time) *Attempt {
	return &Attempt{
		id:        id,
		username:  username,
		state:     StateIdle,
		amount:    amount,
		startedAt: now,
		done:      make(chan struct{}),
	}
}

func (a *Attempt) ID() string {
	return a.id
}

func (a *Attempt) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Attempt) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Receipt is the gateway payment id once the attempt completed.
func (a *Attempt) Receipt() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.state != StateCompleted {
		return ""
	}
	return a.paymentID
}

func (a *Attempt) Order() PendingOrder {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.order
}

func (a *Attempt) Descriptor() SessionDescriptor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.descriptor
}

// Finished reports whether the attempt stopped moving.
func (a *Attempt) Finished() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Done is closed once the attempt is finished.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the attempt is finished or ctx ends. It returns the
// attempt's failure, if any.
func (a *Attempt) Wait(ctx context.Context) (View, error) {
	select {
	case <-a.done:
		return a.View(), a.Err()
	case <-ctx.Done():
		return a.View(), ctx.Err()
	}
}

func (a *Attempt) View() View {
	a.mu.RLock()
	defer a.mu.RUnlock()

	view := View{
		ID:        a.id,
		State:     a.state,
		OrderID:   a.order.OrderID,
		Amount:    a.amount,
		Currency:  a.order.Currency,
		StartedAt: a.startedAt,
	}
	if a.state == StateCompleted {
		view.Receipt = a.paymentID
	}
	if a.state == StateAwaitingGatewayCallback {
		descriptor := a.descriptor
		view.Descriptor = &descriptor
	}
	if a.err != nil {
		view.Error = publicMessage(a.err)
	}
	if !a.finishedAt.IsZero() {
		finished := a.finishedAt
		view.FinishedAt = &finished
	}
	return view
}

func (a *Attempt) report() Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Report{
		AttemptID:  a.id,
		Username:   a.username,
		State:      a.state,
		OrderID:    a.order.OrderID,
		PaymentID:  a.paymentID,
		Amount:     a.amount,
		Err:        a.err,
		StartedAt:  a.startedAt,
		FinishedAt: a.finishedAt,
	}
}

func (a *Attempt) transition(to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transitionLocked(to)
}

func (a *Attempt) transitionLocked(to State) error {
	if !CanTransition(a.state, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout cannot move from %s to %s", a.state, to)).
			WithDetails(map[string]any{"from": a.state, "to": to})
	}
	a.state = to
	return nil
}

// settle moves the attempt into a resting state. Waiters are released
// separately so observers see the outcome first.
func (a *Attempt) settle(to State, err error, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tErr := a.transitionLocked(to); tErr != nil {
		return tErr
	}
	a.err = err
	a.finishedAt = now
	return nil
}

func (a *Attempt) release() {
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *Attempt) setOrder(order PendingOrder) {
	a.mu.Lock()
	a.order = order
	a.mu.Unlock()
}

func (a *Attempt) setDescriptor(descriptor SessionDescriptor) {
	a.mu.Lock()
	a.descriptor = descriptor
	a.mu.Unlock()
}

func (a *Attempt) setPayment(paymentID string, amount int64) {
	a.mu.Lock()
	a.paymentID = paymentID
	a.amount = amount
	a.mu.Unlock()
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return err.Error()
}

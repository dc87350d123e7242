// Package checkout drives the create-order, collect-payment and verify-payment
// protocol for one patient's cart.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/pricing"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Merchant holds the display fields copied into every session descriptor.
type Merchant struct {
	KeyID          string
	Name           string
	Description    string
	ImageURL       string
	ThemeColor     string
	PrefillEmail   string
	PrefillContact string
}

// DefaultAbandonAfter bounds how long an open gateway session waits for the
// widget's callback.
const DefaultAbandonAfter = 30 * time.Minute

// Deps are the collaborators an Orchestrator needs.
type Deps struct {
	Gateway   PaymentGateway
	Orders    OrderService
	Verifier  PaymentVerifier
	Merchant  Merchant
	Logger    *logger.Logger
	Observers []Observer
	Phases    PhaseRecorder

	// AbandonAfter dismisses a gateway session nobody answered. Zero uses
	// DefaultAbandonAfter.
	AbandonAfter time.Duration

	// NewID and Now are overridable in tests.
	NewID func() string
	Now   func() time.Time
}

// Orchestrator runs at most one checkout attempt at a time for a session.
type Orchestrator struct {
	session   types.Session
	cart      *cart.Cart
	gateway   PaymentGateway
	orders    OrderService
	verifier  PaymentVerifier
	merchant  Merchant
	logg      *logger.Logger
	observers []Observer
	phases    PhaseRecorder
	newID     func() string
	now       func() time.Time
	abandon   time.Duration

	mu      sync.Mutex
	current *Attempt
}

func NewOrchestrator(session types.Session, c *cart.Cart, deps Deps) (*Orchestrator, error) {
	if !session.Valid() {
		return nil, fmt.Errorf("session username required")
	}
	if c == nil {
		return nil, fmt.Errorf("cart required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.AbandonAfter <= 0 {
		deps.AbandonAfter = DefaultAbandonAfter
	}
	return &Orchestrator{
		session:   session,
		cart:      c,
		gateway:   deps.Gateway,
		orders:    deps.Orders,
		verifier:  deps.Verifier,
		merchant:  deps.Merchant,
		logg:      deps.Logger,
		observers: deps.Observers,
		phases:    deps.Phases,
		newID:     deps.NewID,
		now:       deps.Now,
		abandon:   deps.AbandonAfter,
	}, nil
}

// Current returns the latest attempt, or nil before the first Start.
func (o *Orchestrator) Current() *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// AcceptsCartChanges is false while the gateway modal is open or a payment is
// being verified.
func (o *Orchestrator) AcceptsCartChanges() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acceptsCartChangesLocked()
}

func (o *Orchestrator) acceptsCartChangesLocked() bool {
	return o.current == nil || !o.current.State().FreezesCart()
}

// MutateCart runs fn unless the cart is frozen. The freeze check and fn run
// under the same lock that guards opening the gateway.
func (o *Orchestrator) MutateCart(fn func(c *cart.Cart) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.acceptsCartChangesLocked() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is locked while a payment is in progress").
			WithDetails(map[string]any{"attempt_id": o.current.ID(), "state": o.current.State()})
	}
	return fn(o.cart)
}

// Start begins a new attempt: it loads the gateway, creates the remote order
// and opens the payment session. It returns once the gateway is open; the
// rest of the attempt runs in the background and can be awaited with
// Attempt.Wait.
//
// Cancelling ctx does not abort the attempt. Once begun, order creation and
// verification run to completion, bounded only by the collaborators' own
// timeouts.
func (o *Orchestrator) Start(ctx context.Context) (*Attempt, error) {
	attempt, snapshot, err := o.begin()
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	ctx = o.logg.WithAttemptID(o.logg.WithUsername(ctx, o.session.Username), attempt.ID())
	o.logg.Info(o.logg.WithField(ctx, "amount", snapshot.Total), "checkout.started")

	loadStart := o.now()
	if err := o.gateway.Load(ctx); err != nil {
		o.observePhase(PhaseGatewayLoad, false, loadStart)
		failure := ensureCode(err, pkgerrors.CodeGatewayUnavailable, "payment gateway failed to load")
		o.fail(ctx, attempt, StateGatewayLoadFailed, failure)
		return attempt, failure
	}
	o.observePhase(PhaseGatewayLoad, true, loadStart)

	order, err := o.createOrder(ctx, attempt, snapshot.Total)
	if err != nil {
		o.fail(ctx, attempt, StateCreationFailed, err)
		return attempt, err
	}

	outcomes, err := o.openGateway(ctx, attempt, order)
	if err != nil {
		state := StateCreationFailed
		if pkgerrors.HasCode(err, pkgerrors.CodeGatewayUnavailable) {
			state = StateGatewayLoadFailed
		}
		o.fail(ctx, attempt, state, err)
		return attempt, err
	}

	o.logg.Info(o.logg.WithOrderID(ctx, order.OrderID), "checkout.awaiting_gateway")
	go o.await(ctx, attempt, outcomes)
	return attempt, nil
}

func (o *Orchestrator) begin() (*Attempt, cart.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil && !o.current.Finished() {
		return nil, cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "a checkout is already in progress").
			WithDetails(map[string]any{"attempt_id": o.current.ID(), "state": o.current.State()})
	}

	snapshot := o.cart.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	attempt := newAttempt(o.newID(), o.session.Username, snapshot.Total, o.now())
	o.current = attempt
	return attempt, snapshot, nil
}

func (o *Orchestrator) createOrder(ctx context.Context, attempt *Attempt, total int64) (PendingOrder, error) {
	if err := attempt.transition(StateOrderCreating); err != nil {
		return PendingOrder{}, err
	}

	start := o.now()
	order, err := o.orders.CreateOrder(ctx, total)
	if err != nil {
		o.observePhase(PhaseCreateOrder, false, start)
		return PendingOrder{}, ensureCode(err, pkgerrors.CodeOrderCreation, "create order failed")
	}
	o.observePhase(PhaseCreateOrder, true, start)

	if expected := pricing.ToMinorUnits(total); order.Amount != expected {
		return PendingOrder{}, pkgerrors.New(pkgerrors.CodeOrderCreation, "order amount does not match cart total").
			WithDetails(map[string]any{"expected": expected, "received": order.Amount, "order_id": order.OrderID})
	}
	if order.Currency == "" {
		order.Currency = DefaultCurrency
	}

	attempt.setOrder(order)
	if err := attempt.transition(StateOrderCreated); err != nil {
		return PendingOrder{}, err
	}
	return order, nil
}

// openGateway re-checks the cart against the acknowledged order and opens the
// widget while holding the cart lock, so nothing can slip in between.
func (o *Orchestrator) openGateway(ctx context.Context, attempt *Attempt, order PendingOrder) (<-chan GatewayOutcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if current := pricing.ToMinorUnits(o.cart.Total()); current != order.Amount {
		return nil, pkgerrors.New(pkgerrors.CodeOrderCreation, "cart changed while the order was being created").
			WithDetails(map[string]any{"order_amount": order.Amount, "cart_amount": current})
	}

	descriptor := o.descriptor(order)
	outcomes, err := o.gateway.Open(ctx, descriptor)
	if err != nil {
		return nil, ensureCode(err, pkgerrors.CodeGatewayUnavailable, "payment gateway failed to open")
	}

	attempt.setDescriptor(descriptor)
	if err := attempt.transition(StateAwaitingGatewayCallback); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (o *Orchestrator) descriptor(order PendingOrder) SessionDescriptor {
	return SessionDescriptor{
		Key:         o.merchant.KeyID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        o.merchant.Name,
		Description: o.merchant.Description,
		Image:       o.merchant.ImageURL,
		OrderID:     order.OrderID,
		Prefill: Prefill{
			Name:    o.session.Username,
			Email:   o.merchant.PrefillEmail,
			Contact: o.merchant.PrefillContact,
		},
		Theme: Theme{Color: o.merchant.ThemeColor},
	}
}

func (o *Orchestrator) await(ctx context.Context, attempt *Attempt, outcomes <-chan GatewayOutcome) {
	outcome, ok := o.nextOutcome(ctx, attempt, outcomes)
	if !ok || outcome.Kind != OutcomeConfirmed {
		if err := attempt.settle(StateIdle, nil, o.now()); err != nil {
			o.logg.Error(ctx, "checkout.dismiss_failed", err)
			attempt.release()
			return
		}
		o.logg.Info(ctx, "checkout.dismissed")
		o.notify(ctx, attempt, o.cart.Lines())
		return
	}
	o.verify(ctx, attempt, outcome.Response)
}

// nextOutcome waits for the widget's callback. A session left open past
// o.abandon is dismissed through the gateway, which frees the session and
// delivers Dismissed on outcomes.
func (o *Orchestrator) nextOutcome(ctx context.Context, attempt *Attempt, outcomes <-chan GatewayOutcome) (GatewayOutcome, bool) {
	timer := time.NewTimer(o.abandon)
	defer timer.Stop()

	select {
	case outcome, ok := <-outcomes:
		return outcome, ok
	case <-timer.C:
	}

	orderID := attempt.Order().OrderID
	o.logg.Warn(o.logg.WithField(ctx, "open_for", o.abandon.String()), "checkout.abandoned")
	err := o.gateway.Dismiss(ctx, orderID)
	if err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		o.logg.Error(o.logg.WithOrderID(ctx, orderID), "checkout.abandon_dismiss_failed", err)
		return Dismissed(), true
	}
	// NotFound means a callback took the session first and will deliver its outcome.
	outcome, ok := <-outcomes
	return outcome, ok
}

func (o *Orchestrator) verify(ctx context.Context, attempt *Attempt, resp GatewayResponse) {
	if err := attempt.transition(StateVerifying); err != nil {
		o.logg.Error(ctx, "checkout.verify_transition_failed", err)
		return
	}

	snapshot := o.cart.Snapshot()
	attempt.setPayment(resp.PaymentID, snapshot.Total)
	ctx = o.logg.WithFields(ctx, map[string]any{"order_id": resp.OrderID, "payment_id": resp.PaymentID})

	if expected := attempt.Order().OrderID; resp.OrderID != expected {
		o.fail(ctx, attempt, StateVerificationFailed, verificationError(
			pkgerrors.New(pkgerrors.CodePaymentVerification, "gateway reported a different order"), attempt, resp))
		return
	}

	confirmation := PaymentConfirmation{
		OrderID:     resp.OrderID,
		PaymentID:   resp.PaymentID,
		Signature:   resp.Signature,
		Items:       snapshot.Lines,
		Username:    o.session.Username,
		TotalAmount: snapshot.Total,
	}

	start := o.now()
	if err := o.verifier.VerifyPayment(ctx, confirmation); err != nil {
		o.observePhase(PhaseVerify, false, start)
		o.fail(ctx, attempt, StateVerificationFailed, verificationError(err, attempt, resp))
		return
	}
	o.observePhase(PhaseVerify, true, start)

	o.cart.Clear()
	if err := attempt.settle(StateCompleted, nil, o.now()); err != nil {
		o.logg.Error(ctx, "checkout.complete_transition_failed", err)
		attempt.release()
		return
	}
	o.logg.Info(ctx, "checkout.completed")
	o.notify(ctx, attempt, snapshot.Lines)
}

func (o *Orchestrator) fail(ctx context.Context, attempt *Attempt, state State, cause error) {
	if err := attempt.settle(state, cause, o.now()); err != nil {
		o.logg.Error(ctx, "checkout.fail_transition_failed", err)
		attempt.release()
		return
	}
	ctx = o.logg.WithFields(ctx, pkgerrors.Dump(cause).Fields())
	o.logg.Warn(o.logg.WithField(ctx, "state", state), "checkout.failed")
	o.notify(ctx, attempt, o.cart.Lines())
}

// notify reports the settled attempt to every observer and then releases
// anyone blocked in Wait.
func (o *Orchestrator) notify(ctx context.Context, attempt *Attempt, items []cart.Line) {
	defer attempt.release()
	report := attempt.report()
	report.Items = items
	for _, observer := range o.observers {
		observer.AttemptFinished(ctx, report)
	}
}

func (o *Orchestrator) observePhase(phase string, success bool, start time.Time) {
	if o.phases == nil {
		return
	}
	o.phases.ObservePhase(phase, success, o.now().Sub(start))
}

func verificationError(err error, attempt *Attempt, resp GatewayResponse) error {
	details := map[string]any{
		"attempt_id": attempt.ID(),
		"order_id":   resp.OrderID,
		"payment_id": resp.PaymentID,
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePaymentVerification {
		return typed.WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentVerification, err, "payment verification failed").WithDetails(details)
}

func ensureCode(err error, code pkgerrors.Code, message string) error {
	if pkgerrors.HasCode(err, code) {
		return err
	}
	return pkgerrors.Wrap(code, err, message)
}

package patients

import (
	"context"
	"sync"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/diagnosis"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Workspace is everything the gateway remembers about one patient: the cart,
// its checkout orchestrator and the latest diagnosis.
type Workspace struct {
	session   types.Session
	cart      *cart.Cart
	checkout  *checkout.Orchestrator
	callbacks GatewayCallbacks
	diagnoser Diagnoser
	store     SnapshotStore
	logg      *logger.Logger

	mu     sync.RWMutex
	latest *diagnosis.Result
}

func (w *Workspace) Session() types.Session {
	return w.session
}

// Cart returns a consistent view of the cart.
func (w *Workspace) Cart() cart.Snapshot {
	return w.cart.Snapshot()
}

// CartLocked reports whether a payment in progress freezes the cart.
func (w *Workspace) CartLocked() bool {
	return !w.checkout.AcceptsCartChanges()
}

// AddToCart adds one unit of product. It fails with a state conflict while a
// payment is open.
func (w *Workspace) AddToCart(ctx context.Context, product types.Product) (cart.Line, error) {
	if product.ID == "" {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var line cart.Line
	err := w.checkout.MutateCart(func(c *cart.Cart) error {
		line = c.Add(product)
		return nil
	})
	if err != nil {
		return cart.Line{}, err
	}
	w.persist(ctx)
	return line, nil
}

// AdjustQty changes a line's quantity by delta. A line that drops to zero is
// removed and returned with Qty 0.
func (w *Workspace) AdjustQty(ctx context.Context, productID string, delta int) (cart.Line, error) {
	if productID == "" {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if delta == 0 {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	var (
		line  cart.Line
		found bool
	)
	err := w.checkout.MutateCart(func(c *cart.Cart) error {
		line, found = c.AdjustQty(productID, delta)
		return nil
	})
	if err != nil {
		return cart.Line{}, err
	}
	if !found {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
			WithDetails(map[string]any{"product_id": productID})
	}
	w.persist(ctx)
	return line, nil
}

// ClearCart empties the cart.
func (w *Workspace) ClearCart(ctx context.Context) error {
	if err := w.checkout.MutateCart(func(c *cart.Cart) error {
		c.Clear()
		return nil
	}); err != nil {
		return err
	}
	w.persist(ctx)
	return nil
}

// StartCheckout runs phases one and two and returns once the payment session
// is open.
func (w *Workspace) StartCheckout(ctx context.Context) (*checkout.Attempt, error) {
	return w.checkout.Start(ctx)
}

// CurrentCheckout returns the latest attempt or nil.
func (w *Workspace) CurrentCheckout() *checkout.Attempt {
	return w.checkout.Current()
}

// ConfirmPayment hands the gateway's success callback to the open attempt and
// waits for verification. A verification failure is returned together with
// the settled view.
func (w *Workspace) ConfirmPayment(ctx context.Context, resp checkout.GatewayResponse) (checkout.View, error) {
	attempt, err := w.awaiting(resp.OrderID)
	if err != nil {
		return checkout.View{}, err
	}
	if err := w.callbacks.Confirm(ctx, resp); err != nil {
		return checkout.View{}, err
	}
	return settled(ctx, attempt)
}

// DismissPayment reports that the patient closed the payment widget.
func (w *Workspace) DismissPayment(ctx context.Context, orderID string) (checkout.View, error) {
	attempt, err := w.awaiting(orderID)
	if err != nil {
		return checkout.View{}, err
	}
	if err := w.callbacks.Dismiss(ctx, orderID); err != nil {
		return checkout.View{}, err
	}
	return settled(ctx, attempt)
}

// settled waits for attempt to stop moving. A caller that gives up first gets
// a dependency error; the attempt itself keeps running.
func settled(ctx context.Context, attempt *checkout.Attempt) (checkout.View, error) {
	view, err := attempt.Wait(ctx)
	if !attempt.Finished() {
		return view, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment is still being processed").
			WithDetails(map[string]any{"attempt_id": attempt.ID()})
	}
	return attempt.View(), attempt.Err()
}

func (w *Workspace) awaiting(orderID string) (*checkout.Attempt, error) {
	attempt := w.checkout.Current()
	if attempt == nil || attempt.State() != checkout.StateAwaitingGatewayCallback || attempt.Order().OrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment is awaiting this order").
			WithDetails(map[string]any{"order_id": orderID})
	}
	return attempt, nil
}

// Diagnose submits symptom text and keeps the result as the latest diagnosis.
func (w *Workspace) Diagnose(ctx context.Context, text string) (diagnosis.Result, error) {
	result, err := w.diagnoser.Diagnose(ctx, w.session, text)
	if err != nil {
		return diagnosis.Result{}, err
	}
	w.mu.Lock()
	w.latest = &result
	w.mu.Unlock()
	return result, nil
}

// LatestDiagnosis returns the most recent successful diagnosis.
func (w *Workspace) LatestDiagnosis() (diagnosis.Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return diagnosis.Result{}, false
	}
	return *w.latest, true
}

// AttemptFinished persists the cart after each attempt so a completed order's
// cleared cart is not restored later.
func (w *Workspace) AttemptFinished(ctx context.Context, _ checkout.Report) {
	w.persist(ctx)
}

func (w *Workspace) persist(ctx context.Context) {
	if err := w.save(ctx); err != nil {
		w.logg.Warn(w.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "patients.snapshot_save_failed")
	}
}

func (w *Workspace) save(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	return w.store.Save(context.WithoutCancel(ctx), w.session.Username, w.cart.Lines())
}

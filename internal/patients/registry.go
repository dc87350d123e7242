// Package patients keeps one workspace per claimed username.
package patients

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/diagnosis"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
	"go.uber.org/multierr"
)

// GatewayCallbacks delivers the hosted widget's callbacks to the open session.
type GatewayCallbacks interface {
	Confirm(ctx context.Context, resp checkout.GatewayResponse) error
	Dismiss(ctx context.Context, orderID string) error
}

type Diagnoser interface {
	Diagnose(ctx context.Context, session types.Session, text string) (diagnosis.Result, error)
}

// Deps are shared by every workspace the registry builds.
type Deps struct {
	Gateway   checkout.PaymentGateway
	Callbacks GatewayCallbacks
	Orders    checkout.OrderService
	Verifier  checkout.PaymentVerifier
	Merchant  checkout.Merchant
	Diagnoser Diagnoser
	Snapshots SnapshotStore
	Observers []checkout.Observer
	Phases    checkout.PhaseRecorder
	Logger    *logger.Logger

	// AbandonAfter is passed to every orchestrator.
	AbandonAfter time.Duration
}

// Registry lazily builds and caches workspaces.
type Registry struct {
	deps Deps

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Gateway == nil || deps.Callbacks == nil {
		return nil, fmt.Errorf("payment gateway and callbacks required")
	}
	if deps.Orders == nil || deps.Verifier == nil {
		return nil, fmt.Errorf("order service and payment verifier required")
	}
	if deps.Diagnoser == nil {
		return nil, fmt.Errorf("diagnoser required")
	}
	if deps.Snapshots == nil {
		deps.Snapshots = NewMemoryStore()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Registry{deps: deps, workspaces: make(map[string]*Workspace)}, nil
}

// Workspace returns the patient's workspace, building it on first use from
// the stored cart snapshot. A snapshot that cannot be loaded starts the
// patient with an empty cart.
func (r *Registry) Workspace(ctx context.Context, session types.Session) (*Workspace, error) {
	if !session.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "patient session required")
	}
	key := storeKey(session.Username)

	r.mu.Lock()
	ws, ok := r.workspaces[key]
	r.mu.Unlock()
	if ok {
		return ws, nil
	}

	built, err := r.build(ctx, session)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.workspaces[key]; ok {
		return existing, nil
	}
	r.workspaces[key] = built
	return built, nil
}

func (r *Registry) build(ctx context.Context, session types.Session) (*Workspace, error) {
	ctx = r.deps.Logger.WithUsername(ctx, session.Username)

	c := cart.New()
	lines, err := r.deps.Snapshots.Load(ctx, session.Username)
	if err != nil {
		r.deps.Logger.Warn(r.deps.Logger.WithFields(ctx, pkgerrors.Dump(err).Fields()), "patients.snapshot_load_failed")
	}
	c.Restore(lines)

	ws := &Workspace{
		session:   session,
		cart:      c,
		callbacks: r.deps.Callbacks,
		diagnoser: r.deps.Diagnoser,
		store:     r.deps.Snapshots,
		logg:      r.deps.Logger,
	}

	observers := make([]checkout.Observer, 0, len(r.deps.Observers)+1)
	observers = append(observers, ws)
	observers = append(observers, r.deps.Observers...)

	orchestrator, err := checkout.NewOrchestrator(session, c, checkout.Deps{
		Gateway:   r.deps.Gateway,
		Orders:    r.deps.Orders,
		Verifier:  r.deps.Verifier,
		Merchant:  r.deps.Merchant,
		Logger:    r.deps.Logger,
		Observers:    observers,
		Phases:       r.deps.Phases,
		AbandonAfter: r.deps.AbandonAfter,
	})
	if err != nil {
		return nil, fmt.Errorf("build checkout orchestrator: %w", err)
	}
	ws.checkout = orchestrator

	r.deps.Logger.Info(r.deps.Logger.WithField(ctx, "restored_lines", c.Len()), "patients.workspace_created")
	return ws, nil
}

// Len reports how many workspaces are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Close flushes every cart to the snapshot store.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	workspaces := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		workspaces = append(workspaces, ws)
	}
	r.mu.Unlock()

	var err error
	for _, ws := range workspaces {
		if saveErr := ws.save(ctx); saveErr != nil {
			err = multierr.Append(err, fmt.Errorf("flush cart for %s: %w", ws.session.Username, saveErr))
		}
	}
	return err
}

// Package razorpay is the server side of the hosted Razorpay checkout widget.
// The browser renders the widget from the session descriptor; its callbacks
// come back through Confirm and Dismiss.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
)

const defaultLoadTimeout = 10 * time.Second

var (
	errLoggerRequired    = errors.New("razorpay logger is required")
	errScriptURLRequired = errors.New("razorpay script url is required")
)

var _ checkout.PaymentGateway = (*Gateway)(nil)

// Gateway tracks one pending widget session per gateway order id.
type Gateway struct {
	scriptURL string
	http      *http.Client
	logger    *logger.Logger
	now       func() time.Time

	loadMu sync.Mutex
	loaded bool

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	descriptor checkout.SessionDescriptor
	outcomes   chan checkout.GatewayOutcome
	openedAt   time.Time
}

// NewGateway builds a gateway for the configured checkout script. A nil HTTP
// client gets a default with a short timeout.
func NewGateway(cfg config.RazorpayConfig, httpClient *http.Client, logg *logger.Logger) (*Gateway, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	scriptURL := strings.TrimSpace(cfg.ScriptURL)
	if scriptURL == "" {
		return nil, errScriptURLRequired
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLoadTimeout}
	}
	return &Gateway{
		scriptURL: scriptURL,
		http:      httpClient,
		logger:    logg,
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  map[string]*session{},
	}, nil
}

// MerchantFromConfig is the storefront identity rendered in every widget.
func MerchantFromConfig(cfg config.RazorpayConfig) checkout.Merchant {
	return checkout.Merchant{
		KeyID:          strings.TrimSpace(cfg.KeyID),
		Name:           cfg.MerchantName,
		Description:    cfg.Description,
		ImageURL:       cfg.ImageURL,
		ThemeColor:     cfg.ThemeColor,
		PrefillEmail:   cfg.PrefillEmail,
		PrefillContact: cfg.PrefillContact,
	}
}

// Load checks that the checkout script is reachable. Success is remembered;
// failures are retried on the next call.
func (g *Gateway) Load(ctx context.Context) error {
	g.loadMu.Lock()
	defer g.loadMu.Unlock()
	if g.loaded {
		return nil
	}

	if err := g.fetchScript(ctx); err != nil {
		g.logger.Warn(g.logger.WithField(ctx, "error", err.Error()), "razorpay.script_load_failed")
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, "razorpay checkout script failed to load")
	}
	g.loaded = true
	g.logger.Info(ctx, "razorpay.script_loaded")
	return nil
}

func (g *Gateway) fetchScript(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("build script request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("script responded with status %d", resp.StatusCode)
	}
	return nil
}

// Open registers a pending session. The returned channel receives exactly one
// outcome and is then closed.
func (g *Gateway) Open(ctx context.Context, descriptor checkout.SessionDescriptor) (<-chan checkout.GatewayOutcome, error) {
	if strings.TrimSpace(descriptor.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.sessions[descriptor.OrderID]; exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment session already open").
			WithDetails(map[string]any{"order_id": descriptor.OrderID})
	}

	s := &session{
		descriptor: descriptor,
		outcomes:   make(chan checkout.GatewayOutcome, 1),
		openedAt:   g.now(),
	}
	g.sessions[descriptor.OrderID] = s
	g.logger.Info(g.logger.WithField(ctx, "order_id", descriptor.OrderID), "razorpay.session_opened")
	return s.outcomes, nil
}

// Confirm delivers the widget's success callback to the waiting attempt.
func (g *Gateway) Confirm(ctx context.Context, resp checkout.GatewayResponse) error {
	s, err := g.take(resp.OrderID)
	if err != nil {
		return err
	}
	g.logger.Info(g.logger.WithFields(ctx, map[string]any{
		"order_id":   resp.OrderID,
		"payment_id": resp.PaymentID,
		"open_for":   g.now().Sub(s.openedAt).String(),
	}), "razorpay.session_confirmed")
	s.outcomes <- checkout.Confirmed(resp)
	close(s.outcomes)
	return nil
}

// Dismiss reports that the patient closed the widget or the payment failed.
func (g *Gateway) Dismiss(ctx context.Context, orderID string) error {
	s, err := g.take(orderID)
	if err != nil {
		return err
	}
	g.logger.Info(g.logger.WithField(ctx, "order_id", orderID), "razorpay.session_dismissed")
	s.outcomes <- checkout.Dismissed()
	close(s.outcomes)
	return nil
}

// Pending returns the descriptor of an open session.
func (g *Gateway) Pending(orderID string) (checkout.SessionDescriptor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[orderID]
	if !ok {
		return checkout.SessionDescriptor{}, false
	}
	return s.descriptor, true
}

func (g *Gateway) take(orderID string) (*session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open payment session for this order").
			WithDetails(map[string]any{"order_id": orderID})
	}
	delete(g.sessions, orderID)
	return s, nil
}

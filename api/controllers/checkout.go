package controllers

import (
	"context"
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/middleware"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/validators"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/support"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// UnresolvedLister returns the payments a patient needs support for.
type UnresolvedLister interface {
	ListUnresolved(ctx context.Context, session types.Session) ([]support.Entry, error)
}

type dismissRequest struct {
	OrderID string `json:"razorpay_order_id" validate:"required,gateway_ref"`
}

// CheckoutStart loads the gateway, creates the order and opens the payment
// session. The response carries the descriptor the widget needs.
func CheckoutStart(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}
		attempt, err := ws.StartCheckout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, attempt.View())
	}
}

// CheckoutCurrent returns the latest attempt.
func CheckoutCurrent(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}
		attempt := ws.CurrentCheckout()
		if attempt == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout attempt yet"))
			return
		}
		responses.WriteSuccess(w, attempt.View())
	}
}

// CheckoutCallback forwards the widget's success payload and waits for the
// payment to be verified.
func CheckoutCallback(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}

		var payload checkout.GatewayResponse
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := ws.ConfirmPayment(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutDismiss reports that the patient closed the widget.
func CheckoutDismiss(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}

		var payload dismissRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := ws.DismissPayment(r.Context(), payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutUnresolved lists verification failures awaiting support.
func CheckoutUnresolved(ledger UnresolvedLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support ledger unavailable"))
			return
		}
		session, ok := middleware.SessionFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "patient session required"))
			return
		}
		entries, err := ledger.ListUnresolved(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"payments": entries})
	}
}

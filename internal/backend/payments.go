package backend

import (
	"context"
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
)

var (
	_ checkout.OrderService    = (*Client)(nil)
	_ checkout.PaymentVerifier = (*Client)(nil)
)

// CreateOrder asks the backend to open a gateway order for amount rupees. The
// returned amount is in paise, as echoed by the gateway.
func (c *Client) CreateOrder(ctx context.Context, amount int64) (checkout.PendingOrder, error) {
	const op = "create_order"
	if amount <= 0 {
		return checkout.PendingOrder{}, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	c.log(ctx, "request", op, map[string]any{"amount": amount})

	var resp createOrderResponse
	req := createOrderRequest{Amount: amount, Currency: checkout.DefaultCurrency}
	if err := c.do(ctx, op, http.MethodPost, "/create-order", req, &resp); err != nil {
		return checkout.PendingOrder{}, c.mapError(err, pkgerrors.CodeOrderCreation, op)
	}

	c.log(ctx, "response", op, map[string]any{"order_id": resp.OrderID, "amount": resp.Amount})
	return checkout.PendingOrder{
		OrderID:  resp.OrderID,
		Amount:   resp.Amount,
		Currency: checkout.DefaultCurrency,
	}, nil
}

// VerifyPayment sends the confirmation once. Any failure, including transport
// errors, is a verification failure.
func (c *Client) VerifyPayment(ctx context.Context, confirmation checkout.PaymentConfirmation) error {
	const op = "verify_payment"
	c.log(ctx, "request", op, map[string]any{
		"order_id":     confirmation.OrderID,
		"payment_id":   confirmation.PaymentID,
		"signature":    confirmation.Signature,
		"total_amount": confirmation.TotalAmount,
		"items":        len(confirmation.Items),
	})

	req := verifyPaymentRequest{
		OrderID:     confirmation.OrderID,
		PaymentID:   confirmation.PaymentID,
		Signature:   confirmation.Signature,
		CartItems:   confirmation.Items,
		Username:    confirmation.Username,
		TotalAmount: confirmation.TotalAmount,
	}
	var resp verifyPaymentResponse
	if err := c.do(ctx, op, http.MethodPost, "/verify-payment", req, &resp); err != nil {
		return c.mapError(err, pkgerrors.CodePaymentVerification, op)
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.Status, "payment_id": confirmation.PaymentID})
	return nil
}

package backend

import (
	"github.com/shopspring/decimal"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Labels the prediction service uses in place of a disease name.
const (
	labelUnknown = "Unknown"
	labelBlocked = "Blocked by Guardrail"
)

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id" validate:"required"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type verifyPaymentRequest struct {
	OrderID     string      `json:"razorpay_order_id"`
	PaymentID   string      `json:"razorpay_payment_id"`
	Signature   string      `json:"razorpay_signature"`
	CartItems   []cart.Line `json:"cart_items"`
	Username    string      `json:"username"`
	TotalAmount int64       `json:"total_amount"`
}

type verifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type predictRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

type predictResponse struct {
	Error            string          `json:"error"`
	Disease          string          `json:"disease" validate:"required"`
	Confidence       decimal.Decimal `json:"confidence"`
	Alternatives     []wireCandidate `json:"alternative_predictions" validate:"dive"`
	FollowUp         *string         `json:"follow_up"`
	DetectedSymptoms []string        `json:"detected_symptoms"`
	Ayurveda         *wireAyurveda   `json:"ayurveda"`
}

type wireCandidate struct {
	Disease    string          `json:"disease" validate:"required"`
	Confidence decimal.Decimal `json:"confidence"`
}

type wireAyurveda struct {
	MedicineNames []string `json:"medicine_names"`
	Precautions   []string `json:"precautions"`
	Source        string   `json:"source"`
}

type medicinesResponse struct {
	Products []types.Product `json:"products" validate:"required"`
}

// errorResponse is the shape FastAPI uses for HTTPException bodies.
type errorResponse struct {
	Detail any `json:"detail"`
}

// Package diagnosis turns raw predictions into the ranked view shown to a
// patient.
package diagnosis

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Kind tags how a prediction should be presented.
type Kind string

const (
	KindResolved           Kind = "resolved"
	KindNeedsClarification Kind = "needs_clarification"
	KindBlocked            Kind = "blocked"
)

// Candidate is one disease label with the model's confidence in percent.
type Candidate struct {
	Disease    string          `json:"disease"`
	Confidence decimal.Decimal `json:"confidence"`
}

// Treatment is the Ayurvedic guidance attached to a resolved prediction.
type Treatment struct {
	Medicines   []string `json:"medicines"`
	Precautions []string `json:"precautions"`
	Source      string   `json:"source,omitempty"`
}

// Prediction is what the prediction service returned, already tagged by the
// client that decoded it.
type Prediction struct {
	Kind             Kind
	Primary          Candidate
	Alternatives     []Candidate
	FollowUp         string
	Treatment        *Treatment
	DetectedSymptoms []string
}

// Predictor calls the prediction service for one patient.
type Predictor interface {
	Predict(ctx context.Context, session types.Session, text string) (Prediction, error)
}

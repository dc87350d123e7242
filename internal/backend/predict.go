package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/diagnosis"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

var _ diagnosis.Predictor = (*Client)(nil)

// Predict submits symptom text and tags the answer. The service's sentinel
// labels are translated here and nowhere else.
func (c *Client) Predict(ctx context.Context, session types.Session, text string) (diagnosis.Prediction, error) {
	const op = "predict"
	c.log(ctx, "request", op, map[string]any{"username": session.Username, "text_length": len(text)})

	var resp predictResponse
	req := predictRequest{Text: text, Username: session.Username}
	if err := c.do(ctx, op, http.MethodPost, "/predict", req, &resp); err != nil {
		return diagnosis.Prediction{}, c.mapError(err, pkgerrors.CodePrediction, op)
	}
	if resp.Error != "" {
		err := &malformedError{cause: errors.New(resp.Error)}
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return diagnosis.Prediction{}, c.mapError(err, pkgerrors.CodePrediction, op)
	}

	prediction := toPrediction(resp)
	c.log(ctx, "response", op, map[string]any{
		"kind":         prediction.Kind,
		"disease":      prediction.Primary.Disease,
		"alternatives": len(prediction.Alternatives),
	})
	return prediction, nil
}

func toPrediction(resp predictResponse) diagnosis.Prediction {
	prediction := diagnosis.Prediction{
		Kind: classify(resp.Disease),
		Primary: diagnosis.Candidate{
			Disease:    strings.TrimSpace(resp.Disease),
			Confidence: resp.Confidence,
		},
		DetectedSymptoms: resp.DetectedSymptoms,
	}
	if resp.FollowUp != nil {
		prediction.FollowUp = *resp.FollowUp
	}
	for _, alt := range resp.Alternatives {
		prediction.Alternatives = append(prediction.Alternatives, diagnosis.Candidate{
			Disease:    strings.TrimSpace(alt.Disease),
			Confidence: alt.Confidence,
		})
	}
	if a := resp.Ayurveda; a != nil && (len(a.MedicineNames) > 0 || len(a.Precautions) > 0) {
		prediction.Treatment = &diagnosis.Treatment{
			Medicines:   a.MedicineNames,
			Precautions: a.Precautions,
			Source:      a.Source,
		}
	}
	return prediction
}

// classify matches the backend's sentinel labels exactly. A disease that
// merely resembles one, such as "unknown", is a real prediction.
func classify(label string) diagnosis.Kind {
	switch label {
	case labelUnknown:
		return diagnosis.KindNeedsClarification
	case labelBlocked:
		return diagnosis.KindBlocked
	default:
		return diagnosis.KindResolved
	}
}

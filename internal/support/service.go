package support

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db/models"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/pricing"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

type eventStore interface {
	Record(ctx context.Context, event models.CheckoutEvent) error
	ListUnresolved(ctx context.Context, username string) ([]models.CheckoutEvent, error)
}

// Entry is a payment the patient may have been charged for without a
// confirmed order.
type Entry struct {
	AttemptID     string      `json:"attempt_id"`
	OrderID       string      `json:"order_id"`
	PaymentID     string      `json:"payment_id"`
	Amount        int64       `json:"amount"`
	AmountDisplay string      `json:"amount_display"`
	Error         string      `json:"error"`
	Items         []cart.Line `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Service records finished checkout attempts and serves the unresolved ones.
type Service struct {
	store eventStore
	logg  *logger.Logger
}

func NewService(store eventStore, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{store: store, logg: logg}
}

// ListUnresolved returns the patient's verification failures awaiting support.
func (s *Service) ListUnresolved(ctx context.Context, session types.Session) ([]Entry, error) {
	if !session.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "patient session required")
	}
	events, err := s.store.ListUnresolved(ctx, session.Key())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unresolved checkout events")
	}
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		entries = append(entries, toEntry(event))
	}
	return entries, nil
}

// AttemptFinished implements checkout.Observer. Only completed and
// verification-failed attempts are written; the rest never reached the
// payment step.
func (s *Service) AttemptFinished(ctx context.Context, report checkout.Report) {
	var outcome string
	switch report.State {
	case checkout.StateCompleted:
		outcome = OutcomeCompleted
	case checkout.StateVerificationFailed:
		outcome = OutcomeVerificationFailed
	default:
		return
	}

	items, err := json.Marshal(report.Items)
	if err != nil {
		items = []byte("[]")
	}
	event := models.CheckoutEvent{
		AttemptID:    report.AttemptID,
		Username:     types.Session{Username: report.Username}.Key(),
		OrderID:      report.OrderID,
		PaymentID:    report.PaymentID,
		Amount:       report.Amount,
		Outcome:      outcome,
		ErrorMessage: errorMessage(report.Err),
		Items:        string(items),
		CreatedAt:    report.FinishedAt.UTC(),
	}

	if err := s.store.Record(ctx, event); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"attempt_id": report.AttemptID,
			"outcome":    outcome,
		})
		s.logg.Error(ctx, "support.record_failed", err)
	}
}

func toEntry(event models.CheckoutEvent) Entry {
	var items []cart.Line
	if err := json.Unmarshal([]byte(event.Items), &items); err != nil || items == nil {
		items = []cart.Line{}
	}
	return Entry{
		AttemptID:     event.AttemptID,
		OrderID:       event.OrderID,
		PaymentID:     event.PaymentID,
		Amount:        event.Amount,
		AmountDisplay: pricing.Format(event.Amount),
		Error:         event.ErrorMessage,
		Items:         items,
		CreatedAt:     event.CreatedAt,
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

var _ checkout.Observer = (*Service)(nil)

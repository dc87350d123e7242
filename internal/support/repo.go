package support

import (
	"context"

	"gorm.io/gorm"

	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/repo"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db/models"
)

const (
	OutcomeCompleted          = "completed"
	OutcomeVerificationFailed = "verification_failed"
)

// Repository encapsulates checkout event persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a support repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Record inserts an event. Re-recording the same attempt is a no-op.
func (r *Repository) Record(ctx context.Context, event models.CheckoutEvent) error {
	if event.AttemptID == "" {
		return gorm.ErrInvalidValue
	}
	conn, err := r.DB(ctx)
	if err != nil {
		return err
	}
	err = conn.Create(&event).Error
	if db.IsUniqueViolation(err, "") {
		return nil
	}
	return err
}

// ListUnresolved returns the verification failures a patient still needs help with,
// newest first.
func (r *Repository) ListUnresolved(ctx context.Context, username string) ([]models.CheckoutEvent, error) {
	conn, err := r.DB(ctx)
	if err != nil {
		return nil, err
	}
	var events []models.CheckoutEvent
	err = conn.
		Where("username = ? AND outcome = ? AND resolved = ?", username, OutcomeVerificationFailed, false).
		Order("created_at DESC").
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

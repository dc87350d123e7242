package models

import "time"

// CheckoutEvent is a finished checkout attempt kept for support follow-up.
// Username is stored lower-cased and Amount is in whole rupees.
type CheckoutEvent struct {
	AttemptID    string     `gorm:"column:attempt_id;type:varchar(64);primaryKey"`
	Username     string     `gorm:"column:username;type:varchar(255);not null;index:idx_checkout_events_username_outcome,priority:1"`
	OrderID      string     `gorm:"column:order_id;type:varchar(128)"`
	PaymentID    string     `gorm:"column:payment_id;type:varchar(128)"`
	Amount       int64      `gorm:"column:amount;not null;default:0"`
	Outcome      string     `gorm:"column:outcome;type:varchar(32);not null;index:idx_checkout_events_username_outcome,priority:2"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	Items        string     `gorm:"column:items;type:text;not null;default:'[]'"`
	Resolved     bool       `gorm:"column:resolved;not null;default:false;index:idx_checkout_events_username_outcome,priority:3"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at"`
}

func (CheckoutEvent) TableName() string {
	return "checkout_events"
}

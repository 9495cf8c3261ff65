package entity

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusVoid      PaymentStatus = "void"
)

// Payment records one amount applied against a booking's balance. Rows are
// never deleted; an administrative reversal flips the status to void.
type Payment struct {
	ID          int64         `json:"id" db:"id"`
	TenantID    int64         `json:"tenant_id" db:"tenant_id"`
	BookingID   int64         `json:"booking_id" db:"booking_id"`
	Amount      float64       `json:"amount" db:"amount"`
	Currency    string        `json:"currency" db:"currency"`
	Method      string        `json:"method" db:"method"`
	Status      PaymentStatus `json:"status" db:"status"`
	Reference   string        `json:"reference,omitempty" db:"reference"`
	Notes       string        `json:"notes,omitempty" db:"notes"`
	ProcessedAt time.Time     `json:"processed_at" db:"processed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

package entity

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeAmount     DiscountType = "amount"
)

type PaymentState string

const (
	PaymentStateUnpaid        PaymentState = "unpaid"
	PaymentStatePartiallyPaid PaymentState = "partially_paid"
	PaymentStatePaid          PaymentState = "paid"
)

// MoneyEpsilon is the tolerance used when comparing derived money amounts.
const MoneyEpsilon = 0.005

// Booking is the priced sales transaction grouping one or more ticketed
// seats for a single event. It is the only writer of its own money fields.
type Booking struct {
	ID                 int64         `json:"id" db:"id"`
	TenantID           int64         `json:"tenant_id" db:"tenant_id"`
	Number             string        `json:"number" db:"number"`
	EventID            int64         `json:"event_id" db:"event_id"`
	CustomerID         *int64        `json:"customer_id,omitempty" db:"customer_id"` // nil for walk-up sales
	SalespersonID      *int64        `json:"salesperson_id,omitempty" db:"salesperson_id"`
	Status             BookingStatus `json:"status" db:"status"`
	SubtotalAmount     float64       `json:"subtotal_amount" db:"subtotal_amount"`
	DiscountType       DiscountType  `json:"discount_type" db:"discount_type"`
	DiscountValue      float64       `json:"discount_value" db:"discount_value"`
	DiscountAmount     float64       `json:"discount_amount" db:"discount_amount"`
	TaxRate            float64       `json:"tax_rate" db:"tax_rate"`
	TaxAmount          float64       `json:"tax_amount" db:"tax_amount"`
	TotalAmount        float64       `json:"total_amount" db:"total_amount"`
	Currency           string        `json:"currency" db:"currency"`
	DueBalance         float64       `json:"due_balance" db:"due_balance"`
	PaymentState       PaymentState  `json:"payment_status" db:"payment_status"`
	ReservedUntil      *time.Time    `json:"reserved_until,omitempty" db:"reserved_until"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason string        `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	Version            int           `json:"version" db:"version"`
	Items              []BookingItem `json:"items,omitempty"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// BookingItem snapshots one sold seat at sale time. Section/row/number are
// denormalized so the booking stays readable after layout changes.
type BookingItem struct {
	ID          int64   `json:"id" db:"id"`
	BookingID   int64   `json:"booking_id" db:"booking_id"`
	EventSeatID int64   `json:"event_seat_id" db:"event_seat_id"`
	TicketID    *int64  `json:"ticket_id,omitempty" db:"ticket_id"`
	Section     string  `json:"section" db:"section"`
	RowLabel    string  `json:"row" db:"row_label"`
	SeatNumber  string  `json:"seat_number" db:"seat_number"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	TotalPrice  float64 `json:"total_price" db:"total_price"`
}

// ComputeTotals derives subtotal, discount, tax, total and due balance from
// the booking's items, discount settings and tax rate. The discount is
// clamped so it never exceeds the subtotal; tax applies to the discounted
// subtotal. DueBalance is reset to the full total, so this must only run
// before any payment has been applied.
func (b *Booking) ComputeTotals() {
	subtotal := 0.0
	for _, item := range b.Items {
		subtotal += item.TotalPrice
	}
	b.SubtotalAmount = round2(subtotal)

	var discount float64
	switch b.DiscountType {
	case DiscountTypePercentage:
		discount = b.SubtotalAmount * b.DiscountValue / 100
	case DiscountTypeAmount:
		discount = b.DiscountValue
	}
	if discount > b.SubtotalAmount {
		discount = b.SubtotalAmount
	}
	if discount < 0 {
		discount = 0
	}
	b.DiscountAmount = round2(discount)

	b.TaxAmount = round2((b.SubtotalAmount - b.DiscountAmount) * b.TaxRate)
	b.TotalAmount = round2(b.SubtotalAmount - b.DiscountAmount + b.TaxAmount)
	b.DueBalance = b.TotalAmount
	b.PaymentState = PaymentStateUnpaid
}

// ApplyPayment reduces the due balance by amount and rederives the payment
// state. Validation (amount > 0, no overpayment) belongs to the caller.
func (b *Booking) ApplyPayment(amount float64) {
	b.DueBalance = round2(b.DueBalance - amount)
	if b.DueBalance < MoneyEpsilon {
		b.DueBalance = 0
	}
	b.refreshPaymentState()
}

// SyncBalance rederives the due balance from the completed-payment total
// in the ledger, clamped to [0, total]. Idempotent, so a repeated sync
// after a void cannot restore the same amount twice.
func (b *Booking) SyncBalance(completedTotal float64) {
	due := round2(b.TotalAmount - completedTotal)
	if due < MoneyEpsilon {
		due = 0
	}
	if due > b.TotalAmount {
		due = b.TotalAmount
	}
	b.DueBalance = due
	b.refreshPaymentState()
}

func (b *Booking) refreshPaymentState() {
	switch {
	case b.DueBalance <= 0:
		b.PaymentState = PaymentStatePaid
	case b.DueBalance+MoneyEpsilon < b.TotalAmount:
		b.PaymentState = PaymentStatePartiallyPaid
	default:
		b.PaymentState = PaymentStateUnpaid
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package entity

import (
	"time"
)

type TicketStatus string

const (
	TicketStatusReserved    TicketStatus = "reserved"
	TicketStatusIssued      TicketStatus = "issued"
	TicketStatusScanned     TicketStatus = "scanned"
	TicketStatusVoid        TicketStatus = "void"
	TicketStatusTransferred TicketStatus = "transferred"
)

// Ticket is bound 1:1 to an event seat for the lifetime of a sale.
// At most one non-void ticket may reference a seat at any time.
type Ticket struct {
	ID            int64        `json:"id" db:"id"`
	TenantID      int64        `json:"tenant_id" db:"tenant_id"`
	EventID       int64        `json:"event_id" db:"event_id"`
	EventSeatID   int64        `json:"event_seat_id" db:"event_seat_id"`
	BookingID     *int64       `json:"booking_id,omitempty" db:"booking_id"`
	Number        string       `json:"number" db:"number"`
	Status        TicketStatus `json:"status" db:"status"`
	Price         float64      `json:"price" db:"price"`
	Currency      string       `json:"currency" db:"currency"`
	Barcode       string       `json:"barcode" db:"barcode"`
	QRCode        string       `json:"qr_code" db:"qr_code"`
	TransferToken string       `json:"transfer_token,omitempty" db:"transfer_token"`
	ReservedAt    *time.Time   `json:"reserved_at,omitempty" db:"reserved_at"`
	ReservedUntil *time.Time   `json:"reserved_until,omitempty" db:"reserved_until"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	IssuedAt      *time.Time   `json:"issued_at,omitempty" db:"issued_at"`
	ScannedAt     *time.Time   `json:"scanned_at,omitempty" db:"scanned_at"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether the ticket still occupies its seat.
func (t *Ticket) IsLive() bool {
	return t.Status != TicketStatusVoid
}

// CanVoid reports whether the ticket may be voided. Scanned tickets have
// been used for entry and are kept as-is for the audit trail.
func (t *Ticket) CanVoid() bool {
	return t.Status == TicketStatusReserved || t.Status == TicketStatusIssued
}

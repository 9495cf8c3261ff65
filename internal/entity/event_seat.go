package entity

import (
	"time"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusBlocked   SeatStatus = "blocked"
	SeatStatusSold      SeatStatus = "sold"
)

// EventSeat is one sellable seat instance scoped to a single event. Its
// status is independent of the physical seat definition in the venue layout.
type EventSeat struct {
	ID            int64      `json:"id" db:"id"`
	TenantID      int64      `json:"tenant_id" db:"tenant_id"`
	EventID       int64      `json:"event_id" db:"event_id"`
	SeatID        *int64     `json:"seat_id,omitempty" db:"seat_id"` // nil for broker-imported seats
	Section       string     `json:"section" db:"section"`
	RowLabel      string     `json:"row" db:"row_label"`
	SeatNumber    string     `json:"seat_number" db:"seat_number"`
	Status        SeatStatus `json:"status" db:"status"`
	Price         float64    `json:"price" db:"price"`
	BrokerID      *int64     `json:"broker_id,omitempty" db:"broker_id"`
	Attributes    Attributes `json:"attributes,omitempty" db:"attributes"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty" db:"reserved_until"`
	BlockReason   string     `json:"block_reason,omitempty" db:"block_reason"`
	Version       int        `json:"version" db:"version"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// CanHold reports whether the seat may move to held.
func (s *EventSeat) CanHold() bool {
	return s.Status == SeatStatusAvailable
}

// CanSell reports whether the seat may move to sold.
func (s *EventSeat) CanSell() bool {
	return s.Status == SeatStatusHeld || s.Status == SeatStatusBlocked
}

// HoldExpired reports whether a held seat has passed its reservation window.
func (s *EventSeat) HoldExpired(now time.Time) bool {
	return s.Status == SeatStatusHeld && s.ReservedUntil != nil && s.ReservedUntil.Before(now)
}

// LayoutSeat is a read-only row from the venue layout master data. The
// engine consumes it during seat initialization and never writes to it.
type LayoutSeat struct {
	ID         int64   `json:"id"`
	Section    string  `json:"section"`
	RowLabel   string  `json:"row"`
	SeatNumber string  `json:"seat_number"`
	BasePrice  float64 `json:"base_price"`
}

// BrokerSeatInput describes a secondary-market seat not tied to a layout seat.
type BrokerSeatInput struct {
	Section    string  `json:"section" binding:"required"`
	RowLabel   string  `json:"row" binding:"required"`
	SeatNumber string  `json:"seat_number" binding:"required"`
	Price      float64 `json:"price" binding:"min=0"`
}

// SeatStatistics holds per-status seat counts for one event.
type SeatStatistics struct {
	EventID   int64 `json:"event_id"`
	Total     int   `json:"total"`
	Available int   `json:"available"`
	Held      int   `json:"held"`
	Blocked   int   `json:"blocked"`
	Sold      int   `json:"sold"`
}

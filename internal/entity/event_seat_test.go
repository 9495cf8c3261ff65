package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeatTransitions(t *testing.T) {
	tests := []struct {
		name    string
		status  SeatStatus
		canHold bool
		canSell bool
	}{
		{name: "available seat can be held but not sold", status: SeatStatusAvailable, canHold: true, canSell: false},
		{name: "held seat can be sold", status: SeatStatusHeld, canHold: false, canSell: true},
		{name: "blocked house seat can be sold directly", status: SeatStatusBlocked, canHold: false, canSell: true},
		{name: "sold seat is terminal", status: SeatStatusSold, canHold: false, canSell: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seat := &EventSeat{Status: tt.status}
			assert.Equal(t, tt.canHold, seat.CanHold())
			assert.Equal(t, tt.canSell, seat.CanSell())
		})
	}
}

func TestHoldExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name          string
		status        SeatStatus
		reservedUntil *time.Time
		expired       bool
	}{
		{name: "hold past its window", status: SeatStatusHeld, reservedUntil: &past, expired: true},
		{name: "hold still running", status: SeatStatusHeld, reservedUntil: &future, expired: false},
		{name: "held without a window never expires", status: SeatStatusHeld, reservedUntil: nil, expired: false},
		{name: "available seat", status: SeatStatusAvailable, reservedUntil: &past, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seat := &EventSeat{Status: tt.status, ReservedUntil: tt.reservedUntil}
			assert.Equal(t, tt.expired, seat.HoldExpired(now))
		})
	}
}

func TestTicketCanVoid(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketStatusReserved}).CanVoid())
	assert.True(t, (&Ticket{Status: TicketStatusIssued}).CanVoid())
	assert.False(t, (&Ticket{Status: TicketStatusScanned}).CanVoid())
	assert.False(t, (&Ticket{Status: TicketStatusVoid}).CanVoid())

	assert.True(t, (&Ticket{Status: TicketStatusIssued}).IsLive())
	assert.False(t, (&Ticket{Status: TicketStatusVoid}).IsLive())
}

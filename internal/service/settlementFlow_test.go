package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/seat-settlement/config"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

func newSettlementServiceWithFakes(seatRepo *fakeSeatRepo, ticketRepo *fakeTicketRepo,
	bookingRepo *fakeBookingRepo, paymentRepo *fakePaymentRepo) *settlementService {

	return &settlementService{
		seatRepo:     seatRepo,
		ticketRepo:   ticketRepo,
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		sequenceRepo: newFakeSequenceRepo(),
		txManager:    fakeTxManager{},
		bookingCfg: config.BookingConfig{
			DefaultCurrency: "USD",
			MaxTaxRate:      0.5,
		},
		workerCfg: config.WorkerConfig{BatchSize: 100},
		logger:    logrus.New(),
	}
}

func TestCheckoutSettlesHeldAndBlockedSeats(t *testing.T) {
	seatRepo := newFakeSeatRepo(
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusHeld, Price: 60},
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusBlocked, Price: 50, BlockReason: "house"},
	)
	ticketRepo := newFakeTicketRepo()
	bookingRepo := newFakeBookingRepo()
	paymentRepo := newFakePaymentRepo()
	s := newSettlementServiceWithFakes(seatRepo, ticketRepo, bookingRepo, paymentRepo)

	booking, err := s.Checkout(context.Background(), &CheckoutRequest{
		TenantID:      1,
		EventID:       5,
		SeatIDs:       []int64{1, 2},
		DiscountType:  entity.DiscountTypeAmount,
		DiscountValue: 10,
		TaxRate:       0.1,
		InitialPayment: &InitialPayment{
			Amount: 50,
			Method: "cash",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "BK-000001", booking.Number)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 110.0, booking.SubtotalAmount)
	assert.Equal(t, 10.0, booking.DiscountAmount)
	assert.Equal(t, 10.0, booking.TaxAmount)
	assert.Equal(t, 110.0, booking.TotalAmount)
	assert.Equal(t, 60.0, booking.DueBalance)
	assert.Equal(t, entity.PaymentStatePartiallyPaid, booking.PaymentState)
	require.Len(t, booking.Items, 2)

	for _, id := range []int64{1, 2} {
		assert.Equal(t, entity.SeatStatusSold, seatRepo.seats[id].Status)
	}

	tickets, err := ticketRepo.GetByBooking(context.Background(), 1, booking.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	for _, ticket := range tickets {
		assert.Equal(t, entity.TicketStatusIssued, ticket.Status)
		assert.NotNil(t, ticket.IssuedAt)
	}

	payments, err := paymentRepo.GetByBooking(context.Background(), 1, booking.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusCompleted, payments[0].Status)
	assert.Equal(t, 50.0, payments[0].Amount)
}

func TestCheckoutReusesReservedTickets(t *testing.T) {
	seatRepo := newFakeSeatRepo(
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusHeld, Price: 60},
	)
	ticketRepo := newFakeTicketRepo(
		&entity.Ticket{TenantID: 1, EventID: 5, EventSeatID: 1, Number: "TK-000001",
			Status: entity.TicketStatusReserved, Price: 45, Currency: "USD"},
	)
	bookingRepo := newFakeBookingRepo()
	s := newSettlementServiceWithFakes(seatRepo, ticketRepo, bookingRepo, newFakePaymentRepo())

	booking, err := s.Checkout(context.Background(), &CheckoutRequest{
		TenantID: 1, EventID: 5, SeatIDs: []int64{1},
	})
	require.NoError(t, err)

	// The reserved ticket is attached, not duplicated, and its price wins
	// over the seat's current price.
	require.Len(t, ticketRepo.tickets, 1)
	ticket := ticketRepo.tickets[1]
	assert.Equal(t, entity.TicketStatusIssued, ticket.Status)
	require.NotNil(t, ticket.BookingID)
	assert.Equal(t, booking.ID, *ticket.BookingID)
	assert.Equal(t, 45.0, booking.TotalAmount)
}

func TestCheckoutRejectsNegativeSeatPrice(t *testing.T) {
	seatRepo := newFakeSeatRepo(
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusHeld, Price: -50},
	)
	s := newSettlementServiceWithFakes(seatRepo, newFakeTicketRepo(), newFakeBookingRepo(), newFakePaymentRepo())

	_, err := s.Checkout(context.Background(), &CheckoutRequest{
		TenantID: 1, EventID: 5, SeatIDs: []int64{1},
	})
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	assert.Contains(t, err.Error(), "negative price")
}

func TestCancelBookingReleasesSeatsKeepsPayments(t *testing.T) {
	seatRepo := newFakeSeatRepo(
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusHeld, Price: 60},
		&entity.EventSeat{TenantID: 1, EventID: 5, Status: entity.SeatStatusBlocked, Price: 50, BlockReason: "house"},
	)
	ticketRepo := newFakeTicketRepo()
	bookingRepo := newFakeBookingRepo()
	paymentRepo := newFakePaymentRepo()
	s := newSettlementServiceWithFakes(seatRepo, ticketRepo, bookingRepo, paymentRepo)
	ctx := context.Background()

	booking, err := s.Checkout(ctx, &CheckoutRequest{
		TenantID: 1, EventID: 5, SeatIDs: []int64{1, 2},
		InitialPayment: &InitialPayment{Amount: 60, Method: "card"},
	})
	require.NoError(t, err)

	err = s.CancelBooking(ctx, 1, booking.ID, "customer request")
	require.NoError(t, err)

	cancelled := bookingRepo.bookings[booking.ID]
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "customer request", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	// The held seat goes back on the floor; the house seat keeps its block.
	assert.Equal(t, entity.SeatStatusAvailable, seatRepo.seats[1].Status)
	assert.Equal(t, entity.SeatStatusBlocked, seatRepo.seats[2].Status)

	for _, ticket := range ticketRepo.tickets {
		assert.Equal(t, entity.TicketStatusVoid, ticket.Status)
	}

	// Payment rows survive cancellation for the audit trail.
	payments, err := paymentRepo.GetByBooking(ctx, 1, booking.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusCompleted, payments[0].Status)

	err = s.CancelBooking(ctx, 1, booking.ID, "again")
	require.Error(t, err)
	assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))
}

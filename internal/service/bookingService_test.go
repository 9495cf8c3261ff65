package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

func TestGetBookingByNumberRequiresNumber(t *testing.T) {
	s := &bookingService{}

	_, err := s.GetBookingByNumber(context.Background(), 1, "")
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
}

func TestUpdateBookingRequiresChanges(t *testing.T) {
	s := &bookingService{}

	_, err := s.UpdateBooking(context.Background(), &UpdateBookingRequest{TenantID: 1, BookingID: 2})
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	assert.Contains(t, err.Error(), "nothing to update")
}

func settledBooking() *entity.Booking {
	return &entity.Booking{
		ID:             2,
		TenantID:       1,
		Number:         "BK-000002",
		EventID:        5,
		Status:         entity.BookingStatusConfirmed,
		SubtotalAmount: 110,
		TotalAmount:    110,
		DueBalance:     110,
		PaymentState:   entity.PaymentStateUnpaid,
		Currency:       "USD",
		Version:        1,
	}
}

func TestUpdateBookingRejectsCancelledStatus(t *testing.T) {
	s := &bookingService{}
	cancelled := entity.BookingStatusCancelled

	_, err := s.UpdateBooking(context.Background(), &UpdateBookingRequest{
		TenantID: 1, BookingID: 2, Status: &cancelled,
	})
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	assert.Contains(t, err.Error(), "cancellation flow")
}

func TestUpdateBookingKeepsSettledTotals(t *testing.T) {
	repo := newFakeBookingRepo(settledBooking())
	s := &bookingService{bookingRepo: repo}

	draft := entity.BookingStatusDraft
	discountType := entity.DiscountTypePercentage
	discountValue := 25.0
	customerID := int64(42)

	booking, err := s.UpdateBooking(context.Background(), &UpdateBookingRequest{
		TenantID:      1,
		BookingID:     2,
		Status:        &draft,
		CustomerID:    &customerID,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusDraft, booking.Status)
	require.NotNil(t, booking.CustomerID)
	assert.Equal(t, int64(42), *booking.CustomerID)
	assert.Equal(t, entity.DiscountTypePercentage, booking.DiscountType)
	assert.Equal(t, 25.0, booking.DiscountValue)

	// Settled amounts stay as they were priced at checkout.
	assert.Equal(t, 110.0, booking.TotalAmount)
	assert.Equal(t, 110.0, booking.DueBalance)
	assert.Equal(t, entity.PaymentStateUnpaid, booking.PaymentState)
}

func TestUpdateBookingRejectsPercentageOver100(t *testing.T) {
	repo := newFakeBookingRepo(settledBooking())
	s := &bookingService{bookingRepo: repo}

	discountType := entity.DiscountTypePercentage
	discountValue := 150.0

	_, err := s.UpdateBooking(context.Background(), &UpdateBookingRequest{
		TenantID:      1,
		BookingID:     2,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
	})
	require.Error(t, err)
	assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	assert.Contains(t, err.Error(), "cannot exceed 100")
}

func TestUpdateBookingRejectsCancelledBooking(t *testing.T) {
	booking := settledBooking()
	booking.Status = entity.BookingStatusCancelled
	s := &bookingService{bookingRepo: newFakeBookingRepo(booking)}

	customerID := int64(42)
	_, err := s.UpdateBooking(context.Background(), &UpdateBookingRequest{
		TenantID: 1, BookingID: 2, CustomerID: &customerID,
	})
	require.Error(t, err)
	assert.Equal(t, entity.KindBusinessRule, entity.KindOf(err))
}

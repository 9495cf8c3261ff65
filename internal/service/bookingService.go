package service

import (
	"context"

	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
}

func NewBookingService(bookingRepo repository.BookingRepository) BookingService {
	return &bookingService{bookingRepo: bookingRepo}
}

func (s *bookingService) GetBooking(ctx context.Context, tenantID, id int64) (*entity.Booking, error) {
	return s.bookingRepo.GetByID(ctx, tenantID, id)
}

func (s *bookingService) GetBookingByNumber(ctx context.Context, tenantID int64, number string) (*entity.Booking, error) {
	if number == "" {
		return nil, entity.NewValidationError("booking number is required")
	}
	return s.bookingRepo.GetByNumber(ctx, tenantID, number)
}

func (s *bookingService) SearchBookings(ctx context.Context, tenantID int64, filter *repository.BookingFilter) ([]*entity.Booking, error) {
	if filter == nil {
		filter = &repository.BookingFilter{}
	}
	return s.bookingRepo.Search(ctx, tenantID, filter)
}

// UpdateBooking edits the booking's status, associations and discount
// fields. Computed amounts are settled at checkout and are deliberately
// not rederived from an edited discount; repricing is a separate step.
// Cancellation goes through its own flow so seats and tickets are
// released consistently.
func (s *bookingService) UpdateBooking(ctx context.Context, req *UpdateBookingRequest) (*entity.Booking, error) {
	if req.Status == nil && req.CustomerID == nil && req.SalespersonID == nil &&
		req.DiscountType == nil && req.DiscountValue == nil {
		return nil, entity.NewValidationError("nothing to update")
	}
	if req.Status != nil {
		switch *req.Status {
		case entity.BookingStatusDraft, entity.BookingStatusConfirmed:
		case entity.BookingStatusCancelled:
			return nil, entity.NewValidationError("bookings are cancelled through the cancellation flow")
		default:
			return nil, entity.NewValidationError("unknown booking status %q", *req.Status)
		}
	}
	if req.DiscountType != nil {
		switch *req.DiscountType {
		case entity.DiscountTypePercentage, entity.DiscountTypeAmount:
		default:
			return nil, entity.NewValidationError("unknown discount type %q", *req.DiscountType)
		}
	}
	if req.DiscountValue != nil && *req.DiscountValue < 0 {
		return nil, entity.NewValidationError("discount value cannot be negative")
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.TenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, entity.NewBusinessRuleError("booking %s is cancelled", booking.Number)
	}

	if req.Status != nil {
		booking.Status = *req.Status
	}
	if req.CustomerID != nil {
		booking.CustomerID = req.CustomerID
	}
	if req.SalespersonID != nil {
		booking.SalespersonID = req.SalespersonID
	}
	if req.DiscountType != nil {
		booking.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		booking.DiscountValue = *req.DiscountValue
	}
	if (req.DiscountType != nil || req.DiscountValue != nil) &&
		booking.DiscountType == entity.DiscountTypePercentage && booking.DiscountValue > 100 {
		return nil, entity.NewValidationError("percentage discount cannot exceed 100")
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

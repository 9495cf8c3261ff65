package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/seat-settlement/config"
	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	cache "github.com/ds124wfegd/seat-settlement/internal/database/redis"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

const (
	sequenceKindBooking = "booking"
	sequenceKindTicket  = "ticket"
)

type settlementService struct {
	seatRepo     repository.EventSeatRepository
	ticketRepo   repository.TicketRepository
	bookingRepo  repository.BookingRepository
	paymentRepo  repository.PaymentRepository
	sequenceRepo repository.SequenceRepository
	txManager    TxManager
	statsCache   *cache.StatisticsCache
	bookingCfg   config.BookingConfig
	workerCfg    config.WorkerConfig
	logger       *logrus.Logger
}

func NewSettlementService(
	seatRepo repository.EventSeatRepository,
	ticketRepo repository.TicketRepository,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	sequenceRepo repository.SequenceRepository,
	txManager TxManager,
	statsCache *cache.StatisticsCache,
	cfg *config.Config,
	logger *logrus.Logger,
) SettlementService {
	return &settlementService{
		seatRepo:     seatRepo,
		ticketRepo:   ticketRepo,
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		sequenceRepo: sequenceRepo,
		txManager:    txManager,
		statsCache:   statsCache,
		bookingCfg:   cfg.Booking,
		workerCfg:    cfg.Worker,
		logger:       logger,
	}
}

// Checkout settles a seat set into a booking: seats move to sold, one
// ticket is issued per seat, and the priced booking with its items is
// created, all inside a single database transaction. Any failure rolls
// the whole settlement back.
func (s *settlementService) Checkout(ctx context.Context, req *CheckoutRequest) (*entity.Booking, error) {
	if err := s.validateCheckout(req); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.bookingCfg.DefaultCurrency
	}

	now := time.Now()
	var booking *entity.Booking

	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		// Sweep lapsed holds first so a customer whose hold just expired
		// gets a conflict, not a sale on a seat someone else may re-hold.
		if _, err := s.seatRepo.ExpireHoldsTx(ctx, tx, now, req.EventID, s.workerCfg.BatchSize); err != nil {
			return err
		}

		seats, err := s.seatRepo.GetByIDsTx(ctx, tx, req.TenantID, req.EventID, req.SeatIDs, true)
		if err != nil {
			return err
		}
		if err := s.checkSellable(req, seats); err != nil {
			return err
		}

		updated, err := s.seatRepo.TransitionSetTx(ctx, tx, req.TenantID, req.EventID, req.SeatIDs,
			[]entity.SeatStatus{entity.SeatStatusHeld, entity.SeatStatusBlocked},
			entity.SeatStatusSold, nil, nil)
		if err != nil {
			return err
		}
		// The seats are locked and checkSellable passed; any shortfall here
		// means the set changed under the lock, which should not happen.
		if len(updated) != len(req.SeatIDs) {
			return entity.NewConcurrencyError("seat set changed concurrently, retry the checkout")
		}

		bookingNumber, err := s.nextNumber(ctx, tx, req.TenantID, sequenceKindBooking, "BK")
		if err != nil {
			return err
		}

		booking = &entity.Booking{
			TenantID:      req.TenantID,
			Number:        bookingNumber,
			EventID:       req.EventID,
			CustomerID:    req.CustomerID,
			SalespersonID: req.SalespersonID,
			Status:        entity.BookingStatusConfirmed,
			DiscountType:  req.DiscountType,
			DiscountValue: req.DiscountValue,
			TaxRate:       req.TaxRate,
			Currency:      currency,
		}

		// Seats initialized with pre-issued tickets already carry a
		// reserved one; attach it instead of minting a duplicate.
		reserved, err := s.ticketRepo.GetLiveBySeatIDsTx(ctx, tx, req.TenantID, req.SeatIDs)
		if err != nil {
			return err
		}
		reservedBySeat := make(map[int64]*entity.Ticket, len(reserved))
		for _, t := range reserved {
			reservedBySeat[t.EventSeatID] = t
		}

		tickets := make([]*entity.Ticket, 0, len(seats))
		for _, seat := range seats {
			ticket := reservedBySeat[seat.ID]
			if ticket == nil {
				ticketNumber, err := s.nextNumber(ctx, tx, req.TenantID, sequenceKindTicket, "TK")
				if err != nil {
					return err
				}
				issuedAt := now
				ticket = &entity.Ticket{
					TenantID:      req.TenantID,
					EventID:       req.EventID,
					EventSeatID:   seat.ID,
					Number:        ticketNumber,
					Status:        entity.TicketStatusIssued,
					Price:         seat.Price,
					Currency:      currency,
					Barcode:       uuid.NewString(),
					TransferToken: uuid.NewString(),
					IssuedAt:      &issuedAt,
				}
				ticket.QRCode = fmt.Sprintf("%s|%s", ticket.Number, ticket.Barcode)
				if err := s.ticketRepo.CreateTx(ctx, tx, ticket); err != nil {
					return err
				}
			}
			tickets = append(tickets, ticket)

			booking.Items = append(booking.Items, entity.BookingItem{
				EventSeatID: seat.ID,
				TicketID:    &ticket.ID,
				Section:     seat.Section,
				RowLabel:    seat.RowLabel,
				SeatNumber:  seat.SeatNumber,
				UnitPrice:   ticket.Price,
				TotalPrice:  ticket.Price,
			})
		}

		for _, item := range booking.Items {
			if item.UnitPrice < 0 || item.TotalPrice < 0 {
				return entity.NewValidationError("seat %d has a negative price", item.EventSeatID)
			}
		}

		booking.ComputeTotals()

		if err := s.bookingRepo.CreateTx(ctx, tx, booking); err != nil {
			return err
		}

		ticketIDs := make([]int64, len(tickets))
		for i, t := range tickets {
			ticketIDs[i] = t.ID
		}
		if err := s.ticketRepo.AttachToBookingTx(ctx, tx, req.TenantID, ticketIDs, booking.ID, now); err != nil {
			return err
		}
		for _, t := range tickets {
			t.BookingID = &booking.ID
		}

		if req.InitialPayment != nil {
			if err := s.applyPaymentTx(ctx, tx, booking, req.InitialPayment, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, req.TenantID, req.EventID)

	s.logger.WithFields(logrus.Fields{
		"tenant_id":      req.TenantID,
		"event_id":       req.EventID,
		"booking_number": booking.Number,
		"seats":          len(req.SeatIDs),
		"total":          booking.TotalAmount,
	}).Info("booking settled")
	return booking, nil
}

// CancelBooking voids the booking's live tickets and returns their seats
// to the floor. House seats that carried a block before the sale go back
// to blocked rather than available. Payment rows are kept untouched for
// the audit trail.
func (s *settlementService) CancelBooking(ctx context.Context, tenantID, bookingID int64, reason string) error {
	var eventID int64
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		booking, err := s.bookingRepo.GetWithLockTx(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == entity.BookingStatusCancelled {
			return entity.NewBusinessRuleError("booking %s is already cancelled", booking.Number)
		}
		eventID = booking.EventID

		seatIDs, err := s.ticketRepo.VoidByBookingTx(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if len(seatIDs) > 0 {
			if err := s.seatRepo.ReleaseSeatsTx(ctx, tx, tenantID, seatIDs); err != nil {
				return err
			}
		}
		return s.bookingRepo.CancelTx(ctx, tx, tenantID, bookingID, reason, time.Now())
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx, tenantID, eventID)

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"booking_id": bookingID,
		"reason":     reason,
	}).Info("booking cancelled")
	return nil
}

func (s *settlementService) validateCheckout(req *CheckoutRequest) error {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return err
	}
	switch req.DiscountType {
	case "", entity.DiscountTypePercentage, entity.DiscountTypeAmount:
	default:
		return entity.NewValidationError("unknown discount type %q", req.DiscountType)
	}
	if req.DiscountType == entity.DiscountTypePercentage && req.DiscountValue > 100 {
		return entity.NewValidationError("percentage discount cannot exceed 100")
	}
	if req.DiscountValue < 0 {
		return entity.NewValidationError("discount value cannot be negative")
	}
	if req.TaxRate < 0 {
		return entity.NewValidationError("tax rate cannot be negative")
	}
	if s.bookingCfg.MaxTaxRate > 0 && req.TaxRate > s.bookingCfg.MaxTaxRate {
		return entity.NewValidationError("tax rate exceeds the maximum of %.4f", s.bookingCfg.MaxTaxRate)
	}
	return nil
}

func (s *settlementService) checkSellable(req *CheckoutRequest, seats []*entity.EventSeat) error {
	byID := make(map[int64]*entity.EventSeat, len(seats))
	for _, seat := range seats {
		byID[seat.ID] = seat
	}

	var conflicting []int64
	for _, id := range req.SeatIDs {
		seat, ok := byID[id]
		if !ok || !seat.CanSell() {
			conflicting = append(conflicting, id)
		}
	}
	if len(conflicting) > 0 {
		return entity.NewConflictError("seats cannot be sold", conflicting...)
	}
	return nil
}

func (s *settlementService) applyPaymentTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking, p *InitialPayment, now time.Time) error {
	if p.Amount <= 0 {
		return entity.NewValidationError("payment amount must be positive")
	}
	if p.Amount > booking.DueBalance+entity.MoneyEpsilon {
		return entity.NewBusinessRuleError("payment of %.2f exceeds the due balance of %.2f",
			p.Amount, booking.DueBalance)
	}

	payment := &entity.Payment{
		TenantID:    booking.TenantID,
		BookingID:   booking.ID,
		Amount:      p.Amount,
		Currency:    booking.Currency,
		Method:      p.Method,
		Status:      entity.PaymentStatusCompleted,
		Reference:   p.Reference,
		ProcessedAt: now,
	}
	if err := s.paymentRepo.CreateTx(ctx, tx, payment); err != nil {
		return err
	}

	booking.ApplyPayment(p.Amount)
	return s.bookingRepo.UpdateBalanceTx(ctx, tx, booking)
}

func (s *settlementService) nextNumber(ctx context.Context, tx *sql.Tx, tenantID int64, kind, prefix string) (string, error) {
	value, err := s.sequenceRepo.NextTx(ctx, tx, tenantID, kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, value), nil
}

func (s *settlementService) invalidateStats(ctx context.Context, tenantID, eventID int64) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.InvalidateStatistics(ctx, tenantID, eventID); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate seat statistics cache")
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/seat-settlement/config"
	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	txManager   TxManager
	bookingCfg  config.BookingConfig
	logger      *logrus.Logger
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	txManager TxManager,
	cfg *config.Config,
	logger *logrus.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		txManager:   txManager,
		bookingCfg:  cfg.Booking,
		logger:      logger,
	}
}

// RecordPayment applies an amount against a booking's balance. The ledger
// row and the balance update commit together; a lost version race on the
// booking is retried a bounded number of times before surfacing as a
// concurrency error.
func (s *paymentService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*entity.Payment, error) {
	if req.Amount <= 0 {
		return nil, entity.NewValidationError("payment amount must be positive")
	}
	if req.Method == "" {
		return nil, entity.NewValidationError("payment method is required")
	}

	retries := s.bookingCfg.PaymentRetries
	if retries < 0 {
		retries = 0
	}

	var payment *entity.Payment
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		payment, err = s.recordPaymentOnce(ctx, req)
		if !errors.Is(err, entity.ErrConcurrentUpdate) {
			break
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": req.BookingID,
			"attempt":    attempt + 1,
		}).Warn("payment hit concurrent booking update, retrying")
	}
	if errors.Is(err, entity.ErrConcurrentUpdate) {
		return nil, entity.NewConcurrencyError("booking %d was updated concurrently, retry the payment", req.BookingID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  req.TenantID,
		"booking_id": req.BookingID,
		"amount":     req.Amount,
		"method":     req.Method,
	}).Info("payment recorded")
	return payment, nil
}

func (s *paymentService) recordPaymentOnce(ctx context.Context, req *RecordPaymentRequest) (*entity.Payment, error) {
	var payment *entity.Payment
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		booking, err := s.bookingRepo.GetWithLockTx(ctx, tx, req.TenantID, req.BookingID)
		if err != nil {
			return err
		}
		if booking.Status == entity.BookingStatusCancelled {
			return entity.NewBusinessRuleError("cannot pay a cancelled booking")
		}

		// The due balance is derived from the completed-payment sum in the
		// ledger, under the booking lock, not from the cached column.
		paid, err := s.paymentRepo.SumCompletedTx(ctx, tx, req.TenantID, req.BookingID)
		if err != nil {
			return err
		}
		due := booking.TotalAmount - paid
		if due <= entity.MoneyEpsilon {
			return entity.NewBusinessRuleError("booking %s is already fully paid", booking.Number)
		}
		if req.Amount > due+entity.MoneyEpsilon {
			return entity.NewBusinessRuleError("payment of %.2f exceeds the due balance of %.2f",
				req.Amount, due)
		}

		payment = &entity.Payment{
			TenantID:    req.TenantID,
			BookingID:   req.BookingID,
			Amount:      req.Amount,
			Currency:    booking.Currency,
			Method:      req.Method,
			Status:      entity.PaymentStatusCompleted,
			Reference:   req.Reference,
			Notes:       req.Notes,
			ProcessedAt: time.Now(),
		}
		if err := s.paymentRepo.CreateTx(ctx, tx, payment); err != nil {
			return err
		}

		booking.SyncBalance(paid + req.Amount)
		return s.bookingRepo.UpdateBalanceTx(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// VoidPayment reverses a completed payment: the ledger row flips to void
// and the booking's balance is rederived from the remaining completed
// payments in the same transaction. The booking lock plus the status
// guard in the void UPDATE mean concurrent voids of one payment restore
// the balance exactly once.
func (s *paymentService) VoidPayment(ctx context.Context, tenantID, paymentID int64) error {
	payment, err := s.paymentRepo.GetByID(ctx, tenantID, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == entity.PaymentStatusVoid {
		return entity.NewBusinessRuleError("payment %d is already void", paymentID)
	}

	err = s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		booking, err := s.bookingRepo.GetWithLockTx(ctx, tx, tenantID, payment.BookingID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.VoidCompletedTx(ctx, tx, tenantID, paymentID); err != nil {
			if errors.Is(err, entity.ErrPaymentAlreadyVoid) {
				return entity.NewBusinessRuleError("payment %d is already void", paymentID)
			}
			return err
		}

		paid, err := s.paymentRepo.SumCompletedTx(ctx, tx, tenantID, payment.BookingID)
		if err != nil {
			return err
		}
		booking.SyncBalance(paid)
		return s.bookingRepo.UpdateBalanceTx(ctx, tx, booking)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"payment_id": paymentID,
	}).Info("payment voided")
	return nil
}

func (s *paymentService) GetBookingPayments(ctx context.Context, tenantID, bookingID int64) ([]*entity.Payment, error) {
	if _, err := s.bookingRepo.GetByID(ctx, tenantID, bookingID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByBooking(ctx, tenantID, bookingID)
}

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
	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/ds124wfegd/seat-settlement/pkg/qrcode"
)

type ticketService struct {
	ticketRepo   repository.TicketRepository
	seatRepo     repository.EventSeatRepository
	sequenceRepo repository.SequenceRepository
	txManager    TxManager
	bookingCfg   config.BookingConfig
	logger       *logrus.Logger
}

func NewTicketService(
	ticketRepo repository.TicketRepository,
	seatRepo repository.EventSeatRepository,
	sequenceRepo repository.SequenceRepository,
	txManager TxManager,
	cfg *config.Config,
	logger *logrus.Logger,
) TicketService {
	return &ticketService{
		ticketRepo:   ticketRepo,
		seatRepo:     seatRepo,
		sequenceRepo: sequenceRepo,
		txManager:    txManager,
		bookingCfg:   cfg.Booking,
		logger:       logger,
	}
}

// CreateTicketsFromSeats pre-issues reserved tickets for seats that do not
// have a live ticket yet. Settlement later flips them to issued and binds
// them to the booking instead of minting new ones.
func (s *ticketService) CreateTicketsFromSeats(ctx context.Context, req *CreateTicketsRequest) ([]*entity.Ticket, error) {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return nil, err
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, entity.NewValidationError("ticket price cannot be negative")
	}

	var tickets []*entity.Ticket
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		seats, err := s.seatRepo.GetByIDsTx(ctx, tx, req.TenantID, req.EventID, req.SeatIDs, true)
		if err != nil {
			return err
		}
		byID := make(map[int64]*entity.EventSeat, len(seats))
		for _, seat := range seats {
			byID[seat.ID] = seat
		}
		var missing []int64
		for _, id := range req.SeatIDs {
			if byID[id] == nil {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return entity.NewConflictError("seats not found for event", missing...)
		}

		live, err := s.ticketRepo.GetLiveBySeatIDsTx(ctx, tx, req.TenantID, req.SeatIDs)
		if err != nil {
			return err
		}
		if len(live) > 0 {
			taken := make([]int64, len(live))
			for i, t := range live {
				taken[i] = t.EventSeatID
			}
			return entity.NewConflictError("seats already have live tickets", taken...)
		}

		tickets, err = s.ReserveTicketsTx(ctx, tx, req.TenantID, req.EventID, seats, req.Price)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": req.TenantID,
		"event_id":  req.EventID,
		"tickets":   len(tickets),
	}).Info("reserved tickets created")
	return tickets, nil
}

// ReserveTicketsTx mints one reserved ticket per seat inside the caller's
// transaction. The live-ticket uniqueness index backstops callers that did
// not check for existing tickets first.
func (s *ticketService) ReserveTicketsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64,
	seats []*entity.EventSeat, priceOverride *float64) ([]*entity.Ticket, error) {
	now := time.Now()
	tickets := make([]*entity.Ticket, 0, len(seats))
	for _, seat := range seats {
		value, err := s.sequenceRepo.NextTx(ctx, tx, tenantID, sequenceKindTicket)
		if err != nil {
			return nil, err
		}
		price := seat.Price
		if priceOverride != nil {
			price = *priceOverride
		}
		reservedAt := now
		ticket := &entity.Ticket{
			TenantID:      tenantID,
			EventID:       eventID,
			EventSeatID:   seat.ID,
			Number:        fmt.Sprintf("TK-%06d", value),
			Status:        entity.TicketStatusReserved,
			Price:         price,
			Currency:      s.bookingCfg.DefaultCurrency,
			Barcode:       uuid.NewString(),
			TransferToken: uuid.NewString(),
			ReservedAt:    &reservedAt,
		}
		ticket.QRCode = fmt.Sprintf("%s|%s", ticket.Number, ticket.Barcode)
		if err := s.ticketRepo.CreateTx(ctx, tx, ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (s *ticketService) GetTicket(ctx context.Context, tenantID, id int64) (*entity.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, tenantID, id)
}

func (s *ticketService) GetBookingTickets(ctx context.Context, tenantID, bookingID int64) ([]*entity.Ticket, error) {
	return s.ticketRepo.GetByBooking(ctx, tenantID, bookingID)
}

func (s *ticketService) GetEventTickets(ctx context.Context, tenantID, eventID int64) ([]*entity.Ticket, error) {
	return s.ticketRepo.GetByEvent(ctx, tenantID, eventID)
}

// TicketQRCode renders the ticket's QR payload as a PNG. Voided tickets
// keep their payload but may no longer be rendered for entry.
func (s *ticketService) TicketQRCode(ctx context.Context, tenantID, id int64, size int) ([]byte, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ticket.IsLive() {
		return nil, entity.NewBusinessRuleError("ticket %s is void", ticket.Number)
	}
	return qrcode.GeneratePNG(ticket.QRCode, size)
}

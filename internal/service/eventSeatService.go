package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/seat-settlement/config"
	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	cache "github.com/ds124wfegd/seat-settlement/internal/database/redis"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/ds124wfegd/seat-settlement/pkg/queue"
)

type eventSeatService struct {
	seatRepo     repository.EventSeatRepository
	layoutRepo   repository.LayoutRepository
	txManager    TxManager
	statsCache   *cache.StatisticsCache
	publisher    TaskPublisher
	ticketIssuer TicketIssuer
	holdCfg      config.HoldConfig
	workerCfg    config.WorkerConfig
	queueCfg     config.QueueConfig
	logger       *logrus.Logger
}

func NewEventSeatService(
	seatRepo repository.EventSeatRepository,
	layoutRepo repository.LayoutRepository,
	txManager TxManager,
	statsCache *cache.StatisticsCache,
	publisher TaskPublisher,
	ticketIssuer TicketIssuer,
	cfg *config.Config,
	logger *logrus.Logger,
) EventSeatService {
	return &eventSeatService{
		seatRepo:     seatRepo,
		layoutRepo:   layoutRepo,
		txManager:    txManager,
		statsCache:   statsCache,
		publisher:    publisher,
		ticketIssuer: ticketIssuer,
		holdCfg:      cfg.Hold,
		workerCfg:    cfg.Worker,
		queueCfg:     cfg.Queue,
		logger:       logger,
	}
}

// InitializeSeats materializes the sellable seats for an event by copying
// a venue layout. Runs once per event: a second run is rejected rather
// than merged. With GenerateTickets a reserved ticket is pre-issued for
// every seat inside the same transaction.
func (s *eventSeatService) InitializeSeats(ctx context.Context, req *InitializeSeatsRequest) ([]*entity.EventSeat, error) {
	if req.TicketPrice != nil && *req.TicketPrice < 0 {
		return nil, entity.NewValidationError("ticket price cannot be negative")
	}

	layoutSeats, err := s.layoutRepo.GetSeats(ctx, req.LayoutID)
	if err != nil {
		return nil, err
	}

	seats := make([]entity.EventSeat, 0, len(layoutSeats))
	for _, ls := range layoutSeats {
		seatID := ls.ID
		price := ls.BasePrice
		if req.TicketPrice != nil {
			price = *req.TicketPrice
		}
		seats = append(seats, entity.EventSeat{
			TenantID:   req.TenantID,
			EventID:    req.EventID,
			SeatID:     &seatID,
			Section:    ls.Section,
			RowLabel:   ls.RowLabel,
			SeatNumber: ls.SeatNumber,
			Status:     entity.SeatStatusAvailable,
			Price:      price,
		})
	}

	err = s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.seatRepo.ExistingPositionsTx(ctx, tx, req.TenantID, req.EventID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return entity.NewValidationError("event %d already has seats initialized", req.EventID)
		}
		if err := s.seatRepo.CreateBulkTx(ctx, tx, seats); err != nil {
			return err
		}
		if req.GenerateTickets && s.ticketIssuer != nil {
			seatRefs := make([]*entity.EventSeat, len(seats))
			for i := range seats {
				seatRefs[i] = &seats[i]
			}
			if _, err := s.ticketIssuer.ReserveTicketsTx(ctx, tx, req.TenantID, req.EventID, seatRefs, req.TicketPrice); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": req.TenantID,
		"event_id":  req.EventID,
		"created":   len(seats),
		"tickets":   req.GenerateTickets,
	}).Info("event seats initialized")

	s.invalidateStats(ctx, req.TenantID, req.EventID)

	out := make([]*entity.EventSeat, len(seats))
	for i := range seats {
		out[i] = &seats[i]
	}
	return out, nil
}

// ImportBrokerSeats adds secondary-market seats on top of the layout.
// Positions already present for the event are a conflict, not a merge.
func (s *eventSeatService) ImportBrokerSeats(ctx context.Context, req *ImportBrokerSeatsRequest) ([]*entity.EventSeat, error) {
	seats := make([]entity.EventSeat, 0, len(req.Seats))
	for _, bs := range req.Seats {
		if bs.Price < 0 {
			return nil, entity.NewValidationError("seat %s/%s/%s has a negative price",
				bs.Section, bs.RowLabel, bs.SeatNumber)
		}
		seats = append(seats, entity.EventSeat{
			TenantID:   req.TenantID,
			EventID:    req.EventID,
			Section:    bs.Section,
			RowLabel:   bs.RowLabel,
			SeatNumber: bs.SeatNumber,
			Status:     entity.SeatStatusAvailable,
			Price:      bs.Price,
			BrokerID:   req.BrokerID,
		})
	}

	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.seatRepo.ExistingPositionsTx(ctx, tx, req.TenantID, req.EventID)
		if err != nil {
			return err
		}

		var duplicates []string
		requested := make(map[string]bool, len(seats))
		for _, seat := range seats {
			key := repository.PositionKey(seat.Section, seat.RowLabel, seat.SeatNumber)
			if existing[key] || requested[key] {
				duplicates = append(duplicates, key)
			}
			requested[key] = true
		}
		if len(duplicates) > 0 {
			return entity.NewConflictError("seat positions already exist: " + strings.Join(duplicates, ", "))
		}
		return s.seatRepo.CreateBulkTx(ctx, tx, seats)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": req.TenantID,
		"event_id":  req.EventID,
		"imported":  len(seats),
	}).Info("broker seats imported")

	s.invalidateStats(ctx, req.TenantID, req.EventID)

	out := make([]*entity.EventSeat, len(seats))
	for i := range seats {
		out[i] = &seats[i]
	}
	return out, nil
}

func (s *eventSeatService) GetSeat(ctx context.Context, tenantID, id int64) (*entity.EventSeat, error) {
	return s.seatRepo.GetByID(ctx, tenantID, id)
}

func (s *eventSeatService) ListSeats(ctx context.Context, tenantID, eventID int64, limit, offset int) ([]*entity.EventSeat, int, error) {
	seats, err := s.seatRepo.GetByEvent(ctx, tenantID, eventID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.seatRepo.CountByEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, 0, err
	}
	return seats, total, nil
}

// HoldSeats places a temporary reservation on the whole seat set, or on
// none of it. Expired holds on the event are swept first so a seat whose
// hold has lapsed counts as available immediately.
func (s *eventSeatService) HoldSeats(ctx context.Context, req *HoldSeatsRequest) ([]*entity.EventSeat, error) {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return nil, err
	}
	if s.holdCfg.MaxSeatsPerHold > 0 && len(req.SeatIDs) > s.holdCfg.MaxSeatsPerHold {
		return nil, entity.NewValidationError("at most %d seats may be held at once", s.holdCfg.MaxSeatsPerHold)
	}

	duration := s.holdCfg.DefaultDuration
	if req.HoldMinutes > 0 {
		duration = time.Duration(req.HoldMinutes) * time.Minute
	}
	if s.holdCfg.MaxDuration > 0 && duration > s.holdCfg.MaxDuration {
		return nil, entity.NewValidationError("hold duration exceeds the maximum of %s", s.holdCfg.MaxDuration)
	}

	now := time.Now()
	reservedUntil := now.Add(duration)

	var seats []*entity.EventSeat
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.seatRepo.ExpireHoldsTx(ctx, tx, now, req.EventID, s.workerCfg.BatchSize); err != nil {
			return err
		}

		if err := s.transitionSet(ctx, tx, req.TenantID, req.EventID, req.SeatIDs,
			[]entity.SeatStatus{entity.SeatStatusAvailable}, entity.SeatStatusHeld,
			&reservedUntil, nil, "seats are not available for holding"); err != nil {
			return err
		}

		var err error
		seats, err = s.seatRepo.GetByIDsTx(ctx, tx, req.TenantID, req.EventID, req.SeatIDs, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.scheduleExpiry(ctx, req.EventID, reservedUntil)
	s.invalidateStats(ctx, req.TenantID, req.EventID)

	s.logger.WithFields(logrus.Fields{
		"tenant_id":      req.TenantID,
		"event_id":       req.EventID,
		"seats":          len(req.SeatIDs),
		"reserved_until": reservedUntil,
	}).Info("seats held")
	return seats, nil
}

// ReleaseHolds lifts holds from the listed seats. Seats that are no longer
// held are skipped, so releasing twice is harmless.
func (s *eventSeatService) ReleaseHolds(ctx context.Context, req *ReleaseHoldsRequest) error {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return err
	}
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		_, err := s.seatRepo.TransitionSetTx(ctx, tx, req.TenantID, req.EventID, req.SeatIDs,
			[]entity.SeatStatus{entity.SeatStatusHeld}, entity.SeatStatusAvailable, nil, nil)
		return err
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx, req.TenantID, req.EventID)
	return nil
}

func (s *eventSeatService) BlockSeats(ctx context.Context, req *BlockSeatsRequest) error {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return err
	}
	// Held seats may be blocked directly; the transition clears their
	// reservation window.
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.transitionSet(ctx, tx, req.TenantID, req.EventID, req.SeatIDs,
			[]entity.SeatStatus{entity.SeatStatusAvailable, entity.SeatStatusHeld},
			entity.SeatStatusBlocked, nil, &req.Reason, "seats cannot be blocked")
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx, req.TenantID, req.EventID)
	return nil
}

func (s *eventSeatService) UnblockSeats(ctx context.Context, req *UnblockSeatsRequest) error {
	if err := validateSeatSet(req.SeatIDs); err != nil {
		return err
	}
	emptyReason := ""
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.transitionSet(ctx, tx, req.TenantID, req.EventID, req.SeatIDs,
			[]entity.SeatStatus{entity.SeatStatusBlocked}, entity.SeatStatusAvailable,
			nil, &emptyReason, "seats are not blocked")
	})
	if err != nil {
		return err
	}

	s.invalidateStats(ctx, req.TenantID, req.EventID)
	return nil
}

func validateSeatSet(ids []int64) error {
	if len(ids) == 0 {
		return entity.NewValidationError("seat_ids must not be empty")
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return entity.NewValidationError("duplicate seat id %d", id)
		}
		seen[id] = true
	}
	return nil
}

// transitionSet flips the whole seat set or none of it. The status check
// runs before the conditional update so conflict errors name the seats
// that were in the wrong state; when the update itself comes up short the
// seats missing from its RETURNING set are the ones another transaction
// took, and they are reported as a conflict too. The losing side of a
// race on the same seat therefore never sees a retryable error kind for
// a seat that is genuinely gone.
func (s *eventSeatService) transitionSet(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64,
	allowed []entity.SeatStatus, to entity.SeatStatus, reservedUntil *time.Time, blockReason *string, conflictMsg string) error {

	conflicting, err := s.seatRepo.SeatsNotInStatusTx(ctx, tx, tenantID, eventID, ids, allowed)
	if err != nil {
		return err
	}
	if len(conflicting) > 0 {
		return entity.NewConflictError(conflictMsg, conflicting...)
	}

	updated, err := s.seatRepo.TransitionSetTx(ctx, tx, tenantID, eventID, ids, allowed, to, reservedUntil, blockReason)
	if err != nil {
		return err
	}
	if len(updated) != len(ids) {
		return entity.NewConflictError(conflictMsg, seatSetDifference(ids, updated)...)
	}
	return nil
}

// seatSetDifference returns the ids not present in updated, in input order.
func seatSetDifference(ids, updated []int64) []int64 {
	flipped := make(map[int64]bool, len(updated))
	for _, id := range updated {
		flipped[id] = true
	}
	var missing []int64
	for _, id := range ids {
		if !flipped[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// ExpireHolds sweeps lapsed holds across all events. Used by the periodic
// worker; each call releases at most one batch.
func (s *eventSeatService) ExpireHolds(ctx context.Context) (int, error) {
	return s.expireHolds(ctx, 0)
}

// ExpireEventHolds sweeps lapsed holds for a single event; used by queue
// tasks scheduled at hold creation.
func (s *eventSeatService) ExpireEventHolds(ctx context.Context, eventID int64) (int, error) {
	return s.expireHolds(ctx, eventID)
}

func (s *eventSeatService) expireHolds(ctx context.Context, eventID int64) (int, error) {
	var expired []int64
	err := s.txManager.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		expired, err = s.seatRepo.ExpireHoldsTx(ctx, tx, time.Now(), eventID, s.workerCfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(expired) > 0 {
		s.logger.WithFields(logrus.Fields{
			"event_id": eventID,
			"released": len(expired),
		}).Info("expired seat holds released")
	}
	return len(expired), nil
}

func (s *eventSeatService) GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error) {
	if s.statsCache != nil {
		if stats, err := s.statsCache.GetStatistics(ctx, tenantID, eventID); err == nil {
			return stats, nil
		}
	}

	stats, err := s.seatRepo.GetStatistics(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		if err := s.statsCache.SetStatistics(ctx, tenantID, stats); err != nil {
			s.logger.WithError(err).Warn("failed to cache seat statistics")
		}
	}
	return stats, nil
}

func (s *eventSeatService) invalidateStats(ctx context.Context, tenantID, eventID int64) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.InvalidateStatistics(ctx, tenantID, eventID); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate seat statistics cache")
	}
}

func (s *eventSeatService) scheduleExpiry(ctx context.Context, eventID int64, at time.Time) {
	if s.publisher == nil {
		return
	}
	task := &queue.Task{
		ID:         uuid.NewString(),
		Type:       queue.TaskTypeExpireHolds,
		Data:       map[string]interface{}{"event_id": eventID},
		ExecuteAt:  at,
		MaxRetries: s.queueCfg.MaxRetries,
	}
	if err := s.publisher.Publish(ctx, task); err != nil {
		s.logger.WithError(err).WithField("event_id", eventID).
			Warn("failed to schedule hold expiry task, periodic sweep will pick it up")
	}
}

package service

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

// In-memory repositories for exercising service flows without a database.
// The transaction manager runs the unit of work against a nil *sql.Tx; the
// fakes ignore the tx argument the same way the real repositories would
// receive it.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeSeatRepo struct {
	seats  map[int64]*entity.EventSeat
	nextID int64

	// transitionHook runs between the status pre-check and the conditional
	// update, standing in for a transaction that commits in that window.
	transitionHook func()
}

func newFakeSeatRepo(seats ...*entity.EventSeat) *fakeSeatRepo {
	r := &fakeSeatRepo{seats: make(map[int64]*entity.EventSeat)}
	for _, s := range seats {
		if s.ID == 0 {
			r.nextID++
			s.ID = r.nextID
		} else if s.ID > r.nextID {
			r.nextID = s.ID
		}
		s.IsActive = true
		r.seats[s.ID] = s
	}
	return r
}

func (r *fakeSeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []entity.EventSeat) error {
	for i := range seats {
		r.nextID++
		seats[i].ID = r.nextID
		seats[i].IsActive = true
		stored := seats[i]
		r.seats[stored.ID] = &stored
	}
	return nil
}

func (r *fakeSeatRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.EventSeat, error) {
	seat, ok := r.seats[id]
	if !ok || seat.TenantID != tenantID {
		return nil, entity.ErrSeatNotFound
	}
	return seat, nil
}

func (r *fakeSeatRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, forUpdate bool) ([]*entity.EventSeat, error) {
	var out []*entity.EventSeat
	for _, id := range ids {
		if seat, ok := r.seats[id]; ok && seat.TenantID == tenantID && seat.EventID == eventID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (r *fakeSeatRepo) GetByEvent(ctx context.Context, tenantID, eventID int64, limit, offset int) ([]*entity.EventSeat, error) {
	var out []*entity.EventSeat
	for _, seat := range r.seats {
		if seat.TenantID == tenantID && seat.EventID == eventID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (r *fakeSeatRepo) CountByEvent(ctx context.Context, tenantID, eventID int64) (int, error) {
	seats, _ := r.GetByEvent(ctx, tenantID, eventID, 0, 0)
	return len(seats), nil
}

func (r *fakeSeatRepo) ExistingPositionsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, seat := range r.seats {
		if seat.TenantID == tenantID && seat.EventID == eventID {
			out[repository.PositionKey(seat.Section, seat.RowLabel, seat.SeatNumber)] = true
		}
	}
	return out, nil
}

func (r *fakeSeatRepo) TransitionSetTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64,
	allowed []entity.SeatStatus, to entity.SeatStatus, reservedUntil *time.Time, blockReason *string) ([]int64, error) {

	if r.transitionHook != nil {
		hook := r.transitionHook
		r.transitionHook = nil
		hook()
	}

	var updated []int64
	for _, id := range ids {
		seat, ok := r.seats[id]
		if !ok || seat.TenantID != tenantID || seat.EventID != eventID || !seat.IsActive {
			continue
		}
		if !statusIn(seat.Status, allowed) {
			continue
		}
		seat.Status = to
		seat.ReservedUntil = reservedUntil
		if blockReason != nil {
			seat.BlockReason = *blockReason
		}
		seat.Version++
		updated = append(updated, id)
	}
	return updated, nil
}

func (r *fakeSeatRepo) SeatsNotInStatusTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, allowed []entity.SeatStatus) ([]int64, error) {
	var out []int64
	for _, id := range ids {
		seat, ok := r.seats[id]
		if !ok || seat.TenantID != tenantID || seat.EventID != eventID || !statusIn(seat.Status, allowed) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *fakeSeatRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, tenantID int64, ids []int64) error {
	for _, id := range ids {
		seat, ok := r.seats[id]
		if !ok || seat.TenantID != tenantID || seat.Status != entity.SeatStatusSold {
			continue
		}
		if seat.BlockReason != "" {
			seat.Status = entity.SeatStatusBlocked
		} else {
			seat.Status = entity.SeatStatusAvailable
		}
		seat.Version++
	}
	return nil
}

func (r *fakeSeatRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time, eventID int64, limit int) ([]int64, error) {
	var expired []int64
	for id, seat := range r.seats {
		if eventID != 0 && seat.EventID != eventID {
			continue
		}
		if seat.HoldExpired(now) {
			seat.Status = entity.SeatStatusAvailable
			seat.ReservedUntil = nil
			seat.Version++
			expired = append(expired, id)
		}
	}
	return expired, nil
}

func (r *fakeSeatRepo) GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error) {
	stats := &entity.SeatStatistics{EventID: eventID}
	for _, seat := range r.seats {
		if seat.TenantID != tenantID || seat.EventID != eventID {
			continue
		}
		stats.Total++
		switch seat.Status {
		case entity.SeatStatusAvailable:
			stats.Available++
		case entity.SeatStatusHeld:
			stats.Held++
		case entity.SeatStatusBlocked:
			stats.Blocked++
		case entity.SeatStatusSold:
			stats.Sold++
		}
	}
	return stats, nil
}

func statusIn(status entity.SeatStatus, allowed []entity.SeatStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

type fakeBookingRepo struct {
	bookings      map[int64]*entity.Booking
	nextID        int64
	balanceWrites int

	// lockHook runs once at the next GetWithLockTx, standing in for a
	// transaction that commits while this one waits for the row lock.
	lockHook func()
}

func newFakeBookingRepo(bookings ...*entity.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: make(map[int64]*entity.Booking)}
	for _, b := range bookings {
		if b.ID == 0 {
			r.nextID++
			b.ID = r.nextID
		} else if b.ID > r.nextID {
			r.nextID = b.ID
		}
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error {
	r.nextID++
	booking.ID = r.nextID
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Booking, error) {
	booking, ok := r.bookings[id]
	if !ok || booking.TenantID != tenantID {
		return nil, entity.ErrBookingNotFound
	}
	return booking, nil
}

func (r *fakeBookingRepo) GetByNumber(ctx context.Context, tenantID int64, number string) (*entity.Booking, error) {
	for _, booking := range r.bookings {
		if booking.TenantID == tenantID && booking.Number == number {
			return booking, nil
		}
	}
	return nil, entity.ErrBookingNotFound
}

func (r *fakeBookingRepo) GetWithLockTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) (*entity.Booking, error) {
	if r.lockHook != nil {
		hook := r.lockHook
		r.lockHook = nil
		hook()
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *fakeBookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	r.bookings[booking.ID] = booking
	booking.Version++
	return nil
}

func (r *fakeBookingRepo) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error {
	stored, ok := r.bookings[booking.ID]
	if !ok || stored.Version != booking.Version {
		return entity.ErrConcurrentUpdate
	}
	stored.DueBalance = booking.DueBalance
	stored.PaymentState = booking.PaymentState
	stored.Version++
	booking.Version = stored.Version
	r.balanceWrites++
	return nil
}

func (r *fakeBookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, tenantID, id int64, reason string, cancelledAt time.Time) error {
	booking, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	booking.Status = entity.BookingStatusCancelled
	booking.CancellationReason = reason
	booking.CancelledAt = &cancelledAt
	booking.Version++
	return nil
}

func (r *fakeBookingRepo) Search(ctx context.Context, tenantID int64, filter *repository.BookingFilter) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, booking := range r.bookings {
		if booking.TenantID == tenantID {
			out = append(out, booking)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	payments map[int64]*entity.Payment
	nextID   int64
}

func newFakePaymentRepo(payments ...*entity.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{payments: make(map[int64]*entity.Payment)}
	for _, p := range payments {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		} else if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.payments[p.ID] = p
	}
	return r
}

func (r *fakePaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, payment *entity.Payment) error {
	r.nextID++
	payment.ID = r.nextID
	stored := *payment
	r.payments[stored.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Payment, error) {
	payment, ok := r.payments[id]
	if !ok || payment.TenantID != tenantID {
		return nil, entity.ErrPaymentNotFound
	}
	snapshot := *payment
	return &snapshot, nil
}

func (r *fakePaymentRepo) GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, payment := range r.payments {
		if payment.TenantID == tenantID && payment.BookingID == bookingID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) (float64, error) {
	var sum float64
	for _, payment := range r.payments {
		if payment.TenantID == tenantID && payment.BookingID == bookingID &&
			payment.Status == entity.PaymentStatusCompleted {
			sum += payment.Amount
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) VoidCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) error {
	payment, ok := r.payments[id]
	if !ok || payment.TenantID != tenantID {
		return entity.ErrPaymentNotFound
	}
	if payment.Status != entity.PaymentStatusCompleted {
		return entity.ErrPaymentAlreadyVoid
	}
	payment.Status = entity.PaymentStatusVoid
	return nil
}

type fakeTicketRepo struct {
	tickets map[int64]*entity.Ticket
	nextID  int64
}

func newFakeTicketRepo(tickets ...*entity.Ticket) *fakeTicketRepo {
	r := &fakeTicketRepo{tickets: make(map[int64]*entity.Ticket)}
	for _, t := range tickets {
		if t.ID == 0 {
			r.nextID++
			t.ID = r.nextID
		} else if t.ID > r.nextID {
			r.nextID = t.ID
		}
		r.tickets[t.ID] = t
	}
	return r
}

func (r *fakeTicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, ticket *entity.Ticket) error {
	r.nextID++
	ticket.ID = r.nextID
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, tenantID, id int64) (*entity.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok || ticket.TenantID != tenantID {
		return nil, entity.ErrTicketNotFound
	}
	return ticket, nil
}

func (r *fakeTicketRepo) GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Ticket, error) {
	var out []*entity.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID == tenantID && ticket.BookingID != nil && *ticket.BookingID == bookingID {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) GetByEvent(ctx context.Context, tenantID, eventID int64) ([]*entity.Ticket, error) {
	var out []*entity.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID == tenantID && ticket.EventID == eventID {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) GetLiveBySeatIDsTx(ctx context.Context, tx *sql.Tx, tenantID int64, seatIDs []int64) ([]*entity.Ticket, error) {
	wanted := make(map[int64]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	var out []*entity.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID == tenantID && wanted[ticket.EventSeatID] && ticket.IsLive() {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) AttachToBookingTx(ctx context.Context, tx *sql.Tx, tenantID int64, ticketIDs []int64, bookingID int64, issuedAt time.Time) error {
	attached := 0
	for _, id := range ticketIDs {
		ticket, ok := r.tickets[id]
		if !ok || ticket.TenantID != tenantID || ticket.Status == entity.TicketStatusVoid {
			continue
		}
		bid := bookingID
		at := issuedAt
		ticket.BookingID = &bid
		ticket.Status = entity.TicketStatusIssued
		ticket.IssuedAt = &at
		ticket.ReservedUntil = nil
		attached++
	}
	if attached != len(ticketIDs) {
		return entity.ErrTicketNotFound
	}
	return nil
}

func (r *fakeTicketRepo) VoidByBookingTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) ([]int64, error) {
	var seatIDs []int64
	for _, ticket := range r.tickets {
		if ticket.TenantID != tenantID || ticket.BookingID == nil || *ticket.BookingID != bookingID {
			continue
		}
		if ticket.CanVoid() {
			ticket.Status = entity.TicketStatusVoid
			seatIDs = append(seatIDs, ticket.EventSeatID)
		}
	}
	return seatIDs, nil
}

type fakeSequenceRepo struct {
	counters map[string]int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int64)}
}

func (r *fakeSequenceRepo) NextTx(ctx context.Context, tx *sql.Tx, tenantID int64, kind string) (int64, error) {
	r.counters[kind]++
	return r.counters[kind], nil
}

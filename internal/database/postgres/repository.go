package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

// Every method is tenant-scoped: the tenant identifier is an explicit
// parameter, never ambient state, so repositories stay safe under
// concurrent request contexts.

type EventSeatRepository interface {
	CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []entity.EventSeat) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.EventSeat, error)
	GetByIDsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, forUpdate bool) ([]*entity.EventSeat, error)
	GetByEvent(ctx context.Context, tenantID, eventID int64, limit, offset int) ([]*entity.EventSeat, error)
	CountByEvent(ctx context.Context, tenantID, eventID int64) (int, error)
	ExistingPositionsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64) (map[string]bool, error)

	// TransitionSetTx flips every listed seat from one of the allowed
	// statuses to the target status in a single conditional statement and
	// returns the ids that actually transitioned. Callers must roll the
	// transaction back when the returned set is smaller than the input;
	// the difference names the conflicting seats.
	TransitionSetTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64,
		allowed []entity.SeatStatus, to entity.SeatStatus, reservedUntil *time.Time, blockReason *string) ([]int64, error)

	// SeatsNotInStatusTx reports which of the listed seats are not in one of
	// the allowed statuses; used for conflict error payloads.
	SeatsNotInStatusTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, allowed []entity.SeatStatus) ([]int64, error)

	// ReleaseSeatsTx returns sold seats to available, or back to blocked
	// for house seats that carry a block reason.
	ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, tenantID int64, ids []int64) error

	// ExpireHoldsTx reverts held seats whose reservation window has passed.
	// The expiry is re-checked inside the statement so a seat freshly
	// re-held by another transaction is never flipped.
	ExpireHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time, eventID int64, limit int) ([]int64, error)

	GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error)
}

type TicketRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, ticket *entity.Ticket) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Ticket, error)
	GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Ticket, error)
	GetByEvent(ctx context.Context, tenantID, eventID int64) ([]*entity.Ticket, error)
	GetLiveBySeatIDsTx(ctx context.Context, tx *sql.Tx, tenantID int64, seatIDs []int64) ([]*entity.Ticket, error)
	AttachToBookingTx(ctx context.Context, tx *sql.Tx, tenantID int64, ticketIDs []int64, bookingID int64, issuedAt time.Time) error
	VoidByBookingTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) ([]int64, error)
}

type BookingRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Booking, error)
	GetByNumber(ctx context.Context, tenantID int64, number string) (*entity.Booking, error)
	GetWithLockTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error

	// UpdateBalanceTx writes due_balance and payment_status with an
	// optimistic version check; entity.ErrConcurrentUpdate when the
	// version no longer matches.
	UpdateBalanceTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error

	CancelTx(ctx context.Context, tx *sql.Tx, tenantID, id int64, reason string, cancelledAt time.Time) error
	Search(ctx context.Context, tenantID int64, filter *BookingFilter) ([]*entity.Booking, error)
}

// BookingFilter narrows booking searches; zero values mean "any".
type BookingFilter struct {
	EventID      int64
	CustomerID   int64
	Status       entity.BookingStatus
	PaymentState entity.PaymentState
	Number       string
	Limit        int
	Offset       int
}

type PaymentRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, payment *entity.Payment) error
	GetByID(ctx context.Context, tenantID, id int64) (*entity.Payment, error)
	GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Payment, error)
	SumCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) (float64, error)

	// VoidCompletedTx voids the payment only while it is still completed;
	// entity.ErrPaymentAlreadyVoid when the guard matches no row.
	VoidCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) error
}

// SequenceRepository hands out monotonically increasing numbers per
// (tenant, kind); used for booking and ticket numbers.
type SequenceRepository interface {
	NextTx(ctx context.Context, tx *sql.Tx, tenantID int64, kind string) (int64, error)
}

// LayoutRepository is the read-only view onto venue layout master data.
// Seat-map CRUD is owned elsewhere; the engine only reads it during
// event seat initialization.
type LayoutRepository interface {
	GetSeats(ctx context.Context, layoutID int64) ([]entity.LayoutSeat, error)
}

// TxManager wraps a unit of work in a single database transaction. Any
// error from fn rolls the whole transaction back, so no partial state is
// ever observable.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"database/sql"

	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/ds124wfegd/seat-settlement/pkg/queue"
)

type EventSeatService interface {
	// Seat lifecycle
	InitializeSeats(ctx context.Context, req *InitializeSeatsRequest) ([]*entity.EventSeat, error)
	ImportBrokerSeats(ctx context.Context, req *ImportBrokerSeatsRequest) ([]*entity.EventSeat, error)
	GetSeat(ctx context.Context, tenantID, id int64) (*entity.EventSeat, error)
	ListSeats(ctx context.Context, tenantID, eventID int64, limit, offset int) ([]*entity.EventSeat, int, error)

	// Status transitions, set-atomic
	HoldSeats(ctx context.Context, req *HoldSeatsRequest) ([]*entity.EventSeat, error)
	ReleaseHolds(ctx context.Context, req *ReleaseHoldsRequest) error
	BlockSeats(ctx context.Context, req *BlockSeatsRequest) error
	UnblockSeats(ctx context.Context, req *UnblockSeatsRequest) error

	// Hold expiry
	ExpireHolds(ctx context.Context) (int, error)
	ExpireEventHolds(ctx context.Context, eventID int64) (int, error)

	GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error)
}

// SettlementService turns held or house-blocked seats into sold seats,
// tickets and a priced booking as one unit of work.
type SettlementService interface {
	Checkout(ctx context.Context, req *CheckoutRequest) (*entity.Booking, error)
	CancelBooking(ctx context.Context, tenantID, bookingID int64, reason string) error
}

type BookingService interface {
	GetBooking(ctx context.Context, tenantID, id int64) (*entity.Booking, error)
	GetBookingByNumber(ctx context.Context, tenantID int64, number string) (*entity.Booking, error)
	SearchBookings(ctx context.Context, tenantID int64, filter *repository.BookingFilter) ([]*entity.Booking, error)
	UpdateBooking(ctx context.Context, req *UpdateBookingRequest) (*entity.Booking, error)
}

type PaymentService interface {
	RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*entity.Payment, error)
	VoidPayment(ctx context.Context, tenantID, paymentID int64) error
	GetBookingPayments(ctx context.Context, tenantID, bookingID int64) ([]*entity.Payment, error)
}

type TicketService interface {
	TicketIssuer

	CreateTicketsFromSeats(ctx context.Context, req *CreateTicketsRequest) ([]*entity.Ticket, error)
	GetTicket(ctx context.Context, tenantID, id int64) (*entity.Ticket, error)
	GetBookingTickets(ctx context.Context, tenantID, bookingID int64) ([]*entity.Ticket, error)
	GetEventTickets(ctx context.Context, tenantID, eventID int64) ([]*entity.Ticket, error)
	TicketQRCode(ctx context.Context, tenantID, id int64, size int) ([]byte, error)
}

// InitializeSeatsRequest materializes the sellable seats for an event from
// a venue layout. Optionally pre-issues one reserved ticket per seat.
type InitializeSeatsRequest struct {
	TenantID        int64    `json:"-"`
	EventID         int64    `json:"-"`
	LayoutID        int64    `json:"layout_id" binding:"required"`
	GenerateTickets bool     `json:"generate_tickets"`
	TicketPrice     *float64 `json:"ticket_price"`
}

// ImportBrokerSeatsRequest adds secondary-market seats not present in the
// venue layout.
type ImportBrokerSeatsRequest struct {
	TenantID int64                    `json:"-"`
	EventID  int64                    `json:"-"`
	BrokerID *int64                   `json:"broker_id"`
	Seats    []entity.BrokerSeatInput `json:"seats" binding:"required,min=1,dive"`
}

type HoldSeatsRequest struct {
	TenantID    int64   `json:"-"`
	EventID     int64   `json:"-"`
	SeatIDs     []int64 `json:"seat_ids" binding:"required,min=1"`
	HoldMinutes int     `json:"hold_minutes" binding:"min=0"`
}

type ReleaseHoldsRequest struct {
	TenantID int64   `json:"-"`
	EventID  int64   `json:"-"`
	SeatIDs  []int64 `json:"seat_ids" binding:"required,min=1"`
}

type BlockSeatsRequest struct {
	TenantID int64   `json:"-"`
	EventID  int64   `json:"-"`
	SeatIDs  []int64 `json:"seat_ids" binding:"required,min=1"`
	Reason   string  `json:"reason" binding:"required"`
}

type UnblockSeatsRequest struct {
	TenantID int64   `json:"-"`
	EventID  int64   `json:"-"`
	SeatIDs  []int64 `json:"seat_ids" binding:"required,min=1"`
}

// CheckoutRequest settles a set of seats into a booking. Seats must be
// held or house-blocked; an optional initial payment is applied inside
// the same transaction.
type CheckoutRequest struct {
	TenantID       int64               `json:"-"`
	EventID        int64               `json:"event_id" binding:"required"`
	SeatIDs        []int64             `json:"seat_ids" binding:"required,min=1"`
	CustomerID     *int64              `json:"customer_id"`
	SalespersonID  *int64              `json:"salesperson_id"`
	DiscountType   entity.DiscountType `json:"discount_type"`
	DiscountValue  float64             `json:"discount_value" binding:"min=0"`
	TaxRate        float64             `json:"tax_rate" binding:"min=0"`
	Currency       string              `json:"currency"`
	InitialPayment *InitialPayment     `json:"initial_payment"`
}

type InitialPayment struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required"`
	Reference string  `json:"reference"`
}

// CreateTicketsRequest pre-issues reserved tickets for seats that have
// none yet, ahead of any sale.
type CreateTicketsRequest struct {
	TenantID int64    `json:"-"`
	EventID  int64    `json:"-"`
	SeatIDs  []int64  `json:"seat_ids" binding:"required,min=1"`
	Price    *float64 `json:"price"`
}

// UpdateBookingRequest edits a booking's status, associations and discount
// fields. Computed totals are never rederived from the new values; a
// repricing of a settled booking is a separate, explicit step.
type UpdateBookingRequest struct {
	TenantID      int64                 `json:"-"`
	BookingID     int64                 `json:"-"`
	Status        *entity.BookingStatus `json:"status"`
	CustomerID    *int64                `json:"customer_id"`
	SalespersonID *int64                `json:"salesperson_id"`
	DiscountType  *entity.DiscountType  `json:"discount_type"`
	DiscountValue *float64              `json:"discount_value"`
}

type RecordPaymentRequest struct {
	TenantID  int64   `json:"-"`
	BookingID int64   `json:"-"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// TxManager runs a unit of work inside a single database transaction;
// satisfied by the postgres TxManager.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TicketIssuer is the transactional slice of the ticket service used by
// seat initialization to pre-issue reserved tickets.
type TicketIssuer interface {
	ReserveTicketsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64,
		seats []*entity.EventSeat, priceOverride *float64) ([]*entity.Ticket, error)
}

// TaskPublisher publishes deferred work to the task queue.
type TaskPublisher interface {
	Publish(ctx context.Context, task *queue.Task) error
}

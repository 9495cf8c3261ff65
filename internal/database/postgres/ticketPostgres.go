package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/lib/pq"
)

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `
	id, tenant_id, event_id, event_seat_id, booking_id, number, status, price,
	currency, barcode, qr_code, transfer_token, reserved_at, reserved_until,
	expires_at, issued_at, scanned_at, created_at, updated_at`

func scanTicket(row interface{ Scan(...interface{}) error }) (*entity.Ticket, error) {
	var t entity.Ticket
	err := row.Scan(
		&t.ID,
		&t.TenantID,
		&t.EventID,
		&t.EventSeatID,
		&t.BookingID,
		&t.Number,
		&t.Status,
		&t.Price,
		&t.Currency,
		&t.Barcode,
		&t.QRCode,
		&t.TransferToken,
		&t.ReservedAt,
		&t.ReservedUntil,
		&t.ExpiresAt,
		&t.IssuedAt,
		&t.ScannedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) CreateTx(ctx context.Context, tx *sql.Tx, ticket *entity.Ticket) error {
	query := `
		INSERT INTO tickets
			(tenant_id, event_id, event_seat_id, booking_id, number, status, price,
			 currency, barcode, qr_code, transfer_token, reserved_at, reserved_until,
			 expires_at, issued_at, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRowContext(ctx, query,
		ticket.TenantID, ticket.EventID, ticket.EventSeatID, ticket.BookingID,
		ticket.Number, ticket.Status, ticket.Price, ticket.Currency,
		ticket.Barcode, ticket.QRCode, ticket.TransferToken,
		ticket.ReservedAt, ticket.ReservedUntil, ticket.ExpiresAt,
		ticket.IssuedAt, ticket.ScannedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND id = $2`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

func (r *ticketRepository) GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND booking_id = $2
		ORDER BY id`

	return r.queryTickets(ctx, query, tenantID, bookingID)
}

func (r *ticketRepository) GetByEvent(ctx context.Context, tenantID, eventID int64) ([]*entity.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND event_id = $2
		ORDER BY id`

	return r.queryTickets(ctx, query, tenantID, eventID)
}

// GetLiveBySeatIDsTx loads the non-void tickets currently occupying the
// listed seats, locking them for the remainder of the transaction.
func (r *ticketRepository) GetLiveBySeatIDsTx(ctx context.Context, tx *sql.Tx, tenantID int64, seatIDs []int64) ([]*entity.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND event_seat_id = ANY($2) AND status <> 'void'
		ORDER BY id
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, tenantID, pq.Array(seatIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query live tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func (r *ticketRepository) AttachToBookingTx(ctx context.Context, tx *sql.Tx, tenantID int64, ticketIDs []int64, bookingID int64, issuedAt time.Time) error {
	query := `
		UPDATE tickets
		SET booking_id = $1, status = 'issued', issued_at = $2,
		    reserved_until = NULL, updated_at = $2
		WHERE tenant_id = $3 AND id = ANY($4) AND status <> 'void'
	`

	result, err := tx.ExecContext(ctx, query, bookingID, issuedAt, tenantID, pq.Array(ticketIDs))
	if err != nil {
		return fmt.Errorf("failed to attach tickets to booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != int64(len(ticketIDs)) {
		return entity.ErrTicketNotFound
	}
	return nil
}

// VoidByBookingTx voids every voidable ticket attached to the booking and
// returns the seat IDs they occupied so callers can release the seats.
func (r *ticketRepository) VoidByBookingTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) ([]int64, error) {
	query := `
		UPDATE tickets
		SET status = 'void', updated_at = $1
		WHERE tenant_id = $2 AND booking_id = $3 AND status IN ('reserved', 'issued')
		RETURNING event_seat_id
	`

	rows, err := tx.QueryContext(ctx, query, time.Now(), tenantID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to void booking tickets: %w", err)
	}
	defer rows.Close()

	var seatIDs []int64
	for rows.Next() {
		var seatID int64
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("failed to scan voided ticket seat: %w", err)
		}
		seatIDs = append(seatIDs, seatID)
	}
	return seatIDs, rows.Err()
}

func (r *ticketRepository) queryTickets(ctx context.Context, query string, args ...interface{}) ([]*entity.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func collectTickets(rows *sql.Rows) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, tenant_id, number, event_id, customer_id, salesperson_id, status,
	subtotal_amount, discount_type, discount_value, discount_amount,
	tax_rate, tax_amount, total_amount, currency, due_balance, payment_status,
	reserved_until, cancelled_at, cancellation_reason, version,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.TenantID,
		&b.Number,
		&b.EventID,
		&b.CustomerID,
		&b.SalespersonID,
		&b.Status,
		&b.SubtotalAmount,
		&b.DiscountType,
		&b.DiscountValue,
		&b.DiscountAmount,
		&b.TaxRate,
		&b.TaxAmount,
		&b.TotalAmount,
		&b.Currency,
		&b.DueBalance,
		&b.PaymentState,
		&b.ReservedUntil,
		&b.CancelledAt,
		&b.CancellationReason,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) CreateTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings
			(tenant_id, number, event_id, customer_id, salesperson_id, status,
			 subtotal_amount, discount_type, discount_value, discount_amount,
			 tax_rate, tax_amount, total_amount, currency, due_balance,
			 payment_status, reserved_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, version, created_at, updated_at
	`

	err := tx.QueryRowContext(ctx, query,
		booking.TenantID, booking.Number, booking.EventID,
		booking.CustomerID, booking.SalespersonID, booking.Status,
		booking.SubtotalAmount, booking.DiscountType, booking.DiscountValue,
		booking.DiscountAmount, booking.TaxRate, booking.TaxAmount,
		booking.TotalAmount, booking.Currency, booking.DueBalance,
		booking.PaymentState, booking.ReservedUntil,
	).Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	itemQuery := `
		INSERT INTO booking_items
			(booking_id, event_seat_id, ticket_id, section, row_label, seat_number, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for i := range booking.Items {
		item := &booking.Items[i]
		item.BookingID = booking.ID
		err := tx.QueryRowContext(ctx, itemQuery,
			item.BookingID, item.EventSeatID, item.TicketID,
			item.Section, item.RowLabel, item.SeatNumber,
			item.UnitPrice, item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create booking item: %w", err)
		}
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND id = $2`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if err := r.loadItems(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) GetByNumber(ctx context.Context, tenantID int64, number string) (*entity.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND number = $2`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, tenantID, number))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by number: %w", err)
	}

	if err := r.loadItems(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetWithLockTx loads the booking under a row lock so settlement steps can
// read and rewrite its balance without racing other writers.
func (r *bookingRepository) GetWithLockTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) (*entity.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`

	booking, err := scanBooking(tx.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	if err := r.loadItemsTx(ctx, tx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, customer_id = $2, salesperson_id = $3,
		    discount_type = $4, discount_value = $5, reserved_until = $6,
		    version = version + 1, updated_at = $7
		WHERE tenant_id = $8 AND id = $9 AND version = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		booking.Status, booking.CustomerID, booking.SalespersonID,
		booking.DiscountType, booking.DiscountValue, booking.ReservedUntil,
		time.Now(), booking.TenantID, booking.ID, booking.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrConcurrentUpdate
	}
	booking.Version++
	return nil
}

func (r *bookingRepository) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET due_balance = $1, payment_status = $2, status = $3,
		    version = version + 1, updated_at = $4
		WHERE tenant_id = $5 AND id = $6 AND version = $7
	`

	result, err := tx.ExecContext(ctx, query,
		booking.DueBalance, booking.PaymentState, booking.Status,
		time.Now(), booking.TenantID, booking.ID, booking.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrConcurrentUpdate
	}
	booking.Version++
	return nil
}

func (r *bookingRepository) CancelTx(ctx context.Context, tx *sql.Tx, tenantID, id int64, reason string, cancelledAt time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $1, cancellation_reason = $2,
		    version = version + 1, updated_at = $1
		WHERE tenant_id = $3 AND id = $4 AND status <> 'cancelled'
	`

	result, err := tx.ExecContext(ctx, query, cancelledAt, reason, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}
	return nil
}

func (r *bookingRepository) Search(ctx context.Context, tenantID int64, filter *BookingFilter) ([]*entity.Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.EventID != 0 {
		args = append(args, filter.EventID)
		query += fmt.Sprintf(" AND event_id = $%d", len(args))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.PaymentState != "" {
		args = append(args, filter.PaymentState)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if filter.Number != "" {
		args = append(args, filter.Number)
		query += fmt.Sprintf(" AND number = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

const bookingItemColumns = `
	id, booking_id, event_seat_id, ticket_id, section, row_label, seat_number,
	unit_price, total_price`

func (r *bookingRepository) loadItems(ctx context.Context, booking *entity.Booking) error {
	query := `SELECT` + bookingItemColumns + `
		FROM booking_items WHERE booking_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to query booking items: %w", err)
	}
	defer rows.Close()

	return scanBookingItems(rows, booking)
}

func (r *bookingRepository) loadItemsTx(ctx context.Context, tx *sql.Tx, booking *entity.Booking) error {
	query := `SELECT` + bookingItemColumns + `
		FROM booking_items WHERE booking_id = $1 ORDER BY id`

	rows, err := tx.QueryContext(ctx, query, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to query booking items: %w", err)
	}
	defer rows.Close()

	return scanBookingItems(rows, booking)
}

func scanBookingItems(rows *sql.Rows, booking *entity.Booking) error {
	for rows.Next() {
		var item entity.BookingItem
		err := rows.Scan(
			&item.ID,
			&item.BookingID,
			&item.EventSeatID,
			&item.TicketID,
			&item.Section,
			&item.RowLabel,
			&item.SeatNumber,
			&item.UnitPrice,
			&item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to scan booking item: %w", err)
		}
		booking.Items = append(booking.Items, item)
	}
	return rows.Err()
}

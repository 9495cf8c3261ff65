package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, tenant_id, booking_id, amount, currency, method, status, reference,
	notes, processed_at, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.BookingID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.Reference,
		&p.Notes,
		&p.ProcessedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) CreateTx(ctx context.Context, tx *sql.Tx, payment *entity.Payment) error {
	query := `
		INSERT INTO payments
			(tenant_id, booking_id, amount, currency, method, status, reference, notes, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := tx.QueryRowContext(ctx, query,
		payment.TenantID, payment.BookingID, payment.Amount, payment.Currency,
		payment.Method, payment.Status, payment.Reference, payment.Notes,
		payment.ProcessedAt,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.Payment, error) {
	query := `SELECT` + paymentColumns + `
		FROM payments
		WHERE tenant_id = $1 AND id = $2`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (r *paymentRepository) GetByBooking(ctx context.Context, tenantID, bookingID int64) ([]*entity.Payment, error) {
	query := `SELECT` + paymentColumns + `
		FROM payments
		WHERE tenant_id = $1 AND booking_id = $2
		ORDER BY processed_at, id`

	rows, err := r.db.QueryContext(ctx, query, tenantID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// SumCompletedTx totals the completed payments against a booking inside
// the caller's transaction; voided payments do not count.
func (r *paymentRepository) SumCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, bookingID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE tenant_id = $1 AND booking_id = $2 AND status = 'completed'
	`

	var sum float64
	if err := tx.QueryRowContext(ctx, query, tenantID, bookingID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum completed payments: %w", err)
	}
	return sum, nil
}

// VoidCompletedTx flips a completed payment to void. The status guard in
// the WHERE clause makes concurrent voids of the same payment serialize:
// exactly one caller matches the row, every other gets
// entity.ErrPaymentAlreadyVoid.
func (r *paymentRepository) VoidCompletedTx(ctx context.Context, tx *sql.Tx, tenantID, id int64) error {
	query := `
		UPDATE payments
		SET status = 'void'
		WHERE tenant_id = $1 AND id = $2 AND status = 'completed'
	`

	result, err := tx.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to void payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrPaymentAlreadyVoid
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
	"github.com/lib/pq"
)

type eventSeatRepository struct {
	db *sql.DB
}

func NewEventSeatRepository(db *sql.DB) EventSeatRepository {
	return &eventSeatRepository{db: db}
}

const eventSeatColumns = `
	id, tenant_id, event_id, seat_id, section, row_label, seat_number, status,
	price, broker_id, attributes, reserved_until, block_reason, version,
	is_active, created_at, updated_at`

func scanEventSeat(row interface{ Scan(...interface{}) error }) (*entity.EventSeat, error) {
	var seat entity.EventSeat
	err := row.Scan(
		&seat.ID,
		&seat.TenantID,
		&seat.EventID,
		&seat.SeatID,
		&seat.Section,
		&seat.RowLabel,
		&seat.SeatNumber,
		&seat.Status,
		&seat.Price,
		&seat.BrokerID,
		&seat.Attributes,
		&seat.ReservedUntil,
		&seat.BlockReason,
		&seat.Version,
		&seat.IsActive,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// CreateBulkTx inserts event seats in one statement, populating IDs on the
// passed slice in insertion order.
func (r *eventSeatRepository) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []entity.EventSeat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `
		INSERT INTO event_seats
			(tenant_id, event_id, seat_id, section, row_label, seat_number, status, price, broker_id, attributes)
		VALUES `
	args := make([]interface{}, 0, len(seats)*10)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		base := i * 10
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args, s.TenantID, s.EventID, s.SeatID, s.Section, s.RowLabel,
			s.SeatNumber, s.Status, s.Price, s.BrokerID, s.Attributes)
	}
	query += " RETURNING id"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to bulk insert event seats: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&seats[i].ID); err != nil {
			return fmt.Errorf("failed to scan inserted seat id: %w", err)
		}
		i++
	}
	return rows.Err()
}

func (r *eventSeatRepository) GetByID(ctx context.Context, tenantID, id int64) (*entity.EventSeat, error) {
	query := `SELECT` + eventSeatColumns + `
		FROM event_seats
		WHERE tenant_id = $1 AND id = $2`

	seat, err := scanEventSeat(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrSeatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event seat: %w", err)
	}
	return seat, nil
}

// GetByIDsTx loads the listed seats ordered by id. With forUpdate the rows
// are locked in that stable order, which keeps concurrent set transitions
// from deadlocking each other.
func (r *eventSeatRepository) GetByIDsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, forUpdate bool) ([]*entity.EventSeat, error) {
	query := `SELECT` + eventSeatColumns + `
		FROM event_seats
		WHERE tenant_id = $1 AND event_id = $2 AND id = ANY($3)
		ORDER BY id`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := tx.QueryContext(ctx, query, tenantID, eventID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query event seats: %w", err)
	}
	defer rows.Close()

	var seats []*entity.EventSeat
	for rows.Next() {
		seat, err := scanEventSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event seat: %w", err)
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (r *eventSeatRepository) GetByEvent(ctx context.Context, tenantID, eventID int64, limit, offset int) ([]*entity.EventSeat, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT` + eventSeatColumns + `
		FROM event_seats
		WHERE tenant_id = $1 AND event_id = $2 AND is_active
		ORDER BY section, row_label, seat_number
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, tenantID, eventID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query event seats: %w", err)
	}
	defer rows.Close()

	var seats []*entity.EventSeat
	for rows.Next() {
		seat, err := scanEventSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event seat: %w", err)
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (r *eventSeatRepository) CountByEvent(ctx context.Context, tenantID, eventID int64) (int, error) {
	query := `SELECT COUNT(*) FROM event_seats WHERE tenant_id = $1 AND event_id = $2 AND is_active`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count event seats: %w", err)
	}
	return count, nil
}

// ExistingPositionsTx returns the occupied (section, row, seat_number)
// positions for an event, keyed "section|row|number".
func (r *eventSeatRepository) ExistingPositionsTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64) (map[string]bool, error) {
	query := `SELECT section, row_label, seat_number
		FROM event_seats
		WHERE tenant_id = $1 AND event_id = $2 AND is_active`

	rows, err := tx.QueryContext(ctx, query, tenantID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seat positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]bool)
	for rows.Next() {
		var section, rowLabel, number string
		if err := rows.Scan(&section, &rowLabel, &number); err != nil {
			return nil, fmt.Errorf("failed to scan seat position: %w", err)
		}
		positions[PositionKey(section, rowLabel, number)] = true
	}
	return positions, rows.Err()
}

// PositionKey builds the uniqueness key for a seat position within an event.
func PositionKey(section, rowLabel, number string) string {
	return section + "|" + rowLabel + "|" + number
}

func (r *eventSeatRepository) TransitionSetTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64,
	allowed []entity.SeatStatus, to entity.SeatStatus, reservedUntil *time.Time, blockReason *string) ([]int64, error) {

	query := `
		UPDATE event_seats
		SET status = $1,
		    reserved_until = $2,
		    block_reason = COALESCE($3, block_reason),
		    version = version + 1,
		    updated_at = $4
		WHERE tenant_id = $5 AND event_id = $6 AND id = ANY($7)
		  AND status = ANY($8) AND is_active
		RETURNING id
	`

	rows, err := tx.QueryContext(ctx, query,
		to, reservedUntil, blockReason, time.Now(),
		tenantID, eventID, pq.Array(ids), pq.Array(statusStrings(allowed)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition seat set: %w", err)
	}
	defer rows.Close()

	var updated []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transitioned seat id: %w", err)
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

func (r *eventSeatRepository) SeatsNotInStatusTx(ctx context.Context, tx *sql.Tx, tenantID, eventID int64, ids []int64, allowed []entity.SeatStatus) ([]int64, error) {
	query := `SELECT id, status FROM event_seats
		WHERE tenant_id = $1 AND event_id = $2 AND id = ANY($3) AND is_active`

	rows, err := tx.QueryContext(ctx, query, tenantID, eventID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query seat statuses: %w", err)
	}
	defer rows.Close()

	allowedSet := make(map[entity.SeatStatus]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}

	found := make(map[int64]bool, len(ids))
	var conflicting []int64
	for rows.Next() {
		var id int64
		var status entity.SeatStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("failed to scan seat status: %w", err)
		}
		found[id] = true
		if !allowedSet[status] {
			conflicting = append(conflicting, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Seats missing entirely are conflicts as well.
	for _, id := range ids {
		if !found[id] {
			conflicting = append(conflicting, id)
		}
	}
	return conflicting, nil
}

// ReleaseSeatsTx returns sold or held seats to the floor: blocked house
// seats keep their block, everything else becomes available again.
func (r *eventSeatRepository) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, tenantID int64, ids []int64) error {
	query := `
		UPDATE event_seats
		SET status = CASE WHEN block_reason <> '' THEN 'blocked' ELSE 'available' END,
		    reserved_until = NULL,
		    version = version + 1,
		    updated_at = $1
		WHERE tenant_id = $2 AND id = ANY($3)
	`

	if _, err := tx.ExecContext(ctx, query, time.Now(), tenantID, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

// ExpireHoldsTx flips held seats whose reservation window has passed back
// to available and returns their IDs. The inner SELECT re-checks the
// expiry under a row lock, and SKIP LOCKED keeps the sweep from stalling
// behind a customer who is mid-checkout on the same seat.
func (r *eventSeatRepository) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time, eventID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `
		UPDATE event_seats
		SET status = 'available', reserved_until = NULL, version = version + 1, updated_at = $1
		WHERE id IN (
			SELECT id FROM event_seats
			WHERE status = 'held' AND reserved_until <= $2
			  AND ($3 = 0 OR event_id = $3)
			ORDER BY id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id
	`

	rows, err := tx.QueryContext(ctx, query, now, now, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to expire seat holds: %w", err)
	}
	defer rows.Close()

	var expired []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired seat id: %w", err)
		}
		expired = append(expired, id)
	}
	return expired, rows.Err()
}

func (r *eventSeatRepository) GetStatistics(ctx context.Context, tenantID, eventID int64) (*entity.SeatStatistics, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = 'available' THEN 1 ELSE 0 END), 0) as available,
			COALESCE(SUM(CASE WHEN status = 'held' THEN 1 ELSE 0 END), 0) as held,
			COALESCE(SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END), 0) as blocked,
			COALESCE(SUM(CASE WHEN status = 'sold' THEN 1 ELSE 0 END), 0) as sold
		FROM event_seats
		WHERE tenant_id = $1 AND event_id = $2 AND is_active
	`

	stats := &entity.SeatStatistics{EventID: eventID}
	err := r.db.QueryRowContext(ctx, query, tenantID, eventID).Scan(
		&stats.Total,
		&stats.Available,
		&stats.Held,
		&stats.Blocked,
		&stats.Sold,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get seat statistics: %w", err)
	}
	return stats, nil
}

func statusStrings(statuses []entity.SeatStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/seat-settlement/internal/entity"
)

type layoutRepository struct {
	db *sql.DB
}

func NewLayoutRepository(db *sql.DB) LayoutRepository {
	return &layoutRepository{db: db}
}

func (r *layoutRepository) GetSeats(ctx context.Context, layoutID int64) ([]entity.LayoutSeat, error) {
	query := `
		SELECT id, section, row_label, seat_number, base_price
		FROM layout_seats
		WHERE layout_id = $1
		ORDER BY section, row_label, seat_number
	`

	rows, err := r.db.QueryContext(ctx, query, layoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to query layout seats: %w", err)
	}
	defer rows.Close()

	var seats []entity.LayoutSeat
	for rows.Next() {
		var seat entity.LayoutSeat
		err := rows.Scan(&seat.ID, &seat.Section, &seat.RowLabel, &seat.SeatNumber, &seat.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan layout seat: %w", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, entity.ErrLayoutNotFound
	}
	return seats, nil
}

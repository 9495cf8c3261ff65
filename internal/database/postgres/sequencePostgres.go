package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// NextTx increments and returns the counter for (tenant, kind). The upsert
// keeps the increment atomic, and running it inside the caller's
// transaction means an aborted settlement never burns a number hole larger
// than its own.
func (r *sequenceRepository) NextTx(ctx context.Context, tx *sql.Tx, tenantID int64, kind string) (int64, error) {
	query := `
		INSERT INTO sequences (tenant_id, kind, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, kind)
		DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`

	var value int64
	if err := tx.QueryRowContext(ctx, query, tenantID, kind).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", kind, err)
	}
	return value, nil
}

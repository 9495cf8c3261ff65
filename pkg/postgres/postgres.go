package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ds124wfegd/seat-settlement/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS event_seats (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			event_id BIGINT NOT NULL,
			seat_id BIGINT,
			section VARCHAR(100) NOT NULL,
			row_label VARCHAR(50) NOT NULL,
			seat_number VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			broker_id BIGINT,
			attributes JSONB NOT NULL DEFAULT '{}',
			reserved_until TIMESTAMP,
			block_reason TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			event_id BIGINT NOT NULL,
			event_seat_id BIGINT NOT NULL REFERENCES event_seats(id),
			booking_id BIGINT,
			number VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'reserved',
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			barcode VARCHAR(100) NOT NULL DEFAULT '',
			qr_code TEXT NOT NULL DEFAULT '',
			transfer_token VARCHAR(100) NOT NULL DEFAULT '',
			reserved_at TIMESTAMP,
			reserved_until TIMESTAMP,
			expires_at TIMESTAMP,
			issued_at TIMESTAMP,
			scanned_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			number VARCHAR(50) NOT NULL,
			event_id BIGINT NOT NULL,
			customer_id BIGINT,
			salesperson_id BIGINT,
			status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
			subtotal_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount_type VARCHAR(20) NOT NULL DEFAULT 'amount',
			discount_value NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			tax_rate NUMERIC(6,4) NOT NULL DEFAULT 0,
			tax_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			due_balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
			reserved_until TIMESTAMP,
			cancelled_at TIMESTAMP,
			cancellation_reason TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS booking_items (
			id BIGSERIAL PRIMARY KEY,
			booking_id BIGINT NOT NULL REFERENCES bookings(id),
			event_seat_id BIGINT NOT NULL REFERENCES event_seats(id),
			ticket_id BIGINT,
			section VARCHAR(100) NOT NULL,
			row_label VARCHAR(50) NOT NULL,
			seat_number VARCHAR(50) NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_price NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			booking_id BIGINT NOT NULL REFERENCES bookings(id),
			amount NUMERIC(12,2) NOT NULL,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			method VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'completed',
			reference VARCHAR(100) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			processed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS layout_seats (
			id BIGSERIAL PRIMARY KEY,
			layout_id BIGINT NOT NULL,
			section VARCHAR(100) NOT NULL,
			row_label VARCHAR(50) NOT NULL,
			seat_number VARCHAR(50) NOT NULL,
			base_price NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS sequences (
			tenant_id BIGINT NOT NULL,
			kind VARCHAR(30) NOT NULL,
			value BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (tenant_id, kind)
		)`,

		// Uniqueness invariants
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_event_seats_position
			ON event_seats(event_id, section, row_label, seat_number) WHERE is_active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tickets_live_seat
			ON tickets(event_seat_id) WHERE status <> 'void'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tickets_number ON tickets(tenant_id, number)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_number ON bookings(tenant_id, number)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_event_seats_event_status ON event_seats(event_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_event_seats_reserved_until ON event_seats(reserved_until) WHERE status = 'held'`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_booking_id ON tickets(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_event_id ON tickets(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_event_id ON bookings(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer_id ON bookings(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_items_booking_id ON booking_items(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_layout_seats_layout_id ON layout_seats(layout_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

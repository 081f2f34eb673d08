package postgres

import (
	"context"
	"database/sql"
)

// schema is executed on startup to ensure the three relations exist.
// bill_items references bills so bills must be created first.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	sku TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	min_quantity INTEGER NOT NULL DEFAULT 5,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bills (
	id BIGSERIAL PRIMARY KEY,
	customer_name TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	total_amount NUMERIC(12,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bill_items (
	id BIGSERIAL PRIMARY KEY,
	bill_id BIGINT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
	item_id BIGINT NOT NULL,
	item_name TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 1),
	price_at_time NUMERIC(12,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bill_items_bill_id ON bill_items(bill_id);
CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills(created_at DESC);
`

func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

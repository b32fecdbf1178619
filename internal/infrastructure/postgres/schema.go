package postgres

import (
	"context"
	"fmt"
)

// schema tablas del terminal. Idempotente.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS terminal_sessions (
		terminal_id  TEXT PRIMARY KEY,
		token        TEXT NOT NULL,
		email        TEXT NOT NULL,
		first_name   TEXT NOT NULL DEFAULT '',
		last_name    TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL,
		mode         TEXT NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offline_pins (
		email          TEXT PRIMARY KEY,
		pin_hash       TEXT NOT NULL,
		identity_email TEXT NOT NULL,
		first_name     TEXT NOT NULL DEFAULT '',
		last_name      TEXT NOT NULL DEFAULT '',
		role           TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payment_connectors (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		api_url     TEXT NOT NULL,
		timeout_ms  BIGINT NOT NULL DEFAULT 15000,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_validations (
		id              UUID PRIMARY KEY,
		order_id        TEXT NOT NULL,
		connector_id    TEXT NOT NULL,
		cashier_email   TEXT NOT NULL,
		customer_email  TEXT NOT NULL,
		success         BOOLEAN NOT NULL,
		error_kind      TEXT NOT NULL DEFAULT '',
		message         TEXT NOT NULL DEFAULT '',
		total_amount    NUMERIC(14,2) NOT NULL DEFAULT 0,
		employee_share  NUMERIC(14,2) NOT NULL DEFAULT 0,
		employer_share  NUMERIC(14,2) NOT NULL DEFAULT 0,
		transaction_id  TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_validations_created_at ON order_validations (created_at DESC)`,
}

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Migrate aplica el esquema completo en una sola transacción.
func Migrate(ctx context.Context, tx *TxRunner) error {
	return tx.Run(ctx, func(q Querier) error {
		return EnsureSchema(ctx, q)
	})
}

package postgres

import (
	"context"
	"fmt"
)

// schema is applied at startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id   TEXT PRIMARY KEY,
		menu_id    TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		quantity   INT NOT NULL,
		amount     NUMERIC(10,2) NOT NULL,
		order_date TIMESTAMPTZ NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS workflow_executions (
		order_id    TEXT PRIMARY KEY,
		step_cursor INT NOT NULL,
		version     BIGINT NOT NULL,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		deadline    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pending_tasks (
		task_id     TEXT PRIMARY KEY,
		order_id    TEXT NOT NULL REFERENCES workflow_executions (order_id),
		token       TEXT NOT NULL,
		kind        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		started_at  TIMESTAMPTZ,
		resolved    BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pending_tasks_unresolved_idx
		ON pending_tasks (order_id) WHERE NOT resolved`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL,
		date       TIMESTAMPTZ NOT NULL,
		amount     NUMERIC(10,2) NOT NULL,
		status     TEXT NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes this adapter relies on.
// The partial unique index on pending_tasks enforces at most one
// unresolved task per execution at the storage layer.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

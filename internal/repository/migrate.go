package repository

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE SCHEMA IF NOT EXISTS bank`,
	`CREATE TABLE IF NOT EXISTS bank.users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS bank.roles (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS bank.user_roles (
		user_id BIGINT NOT NULL REFERENCES bank.users (id) ON DELETE CASCADE,
		role_id INT NOT NULL REFERENCES bank.roles (id),
		PRIMARY KEY (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bank.cards (
		id               BIGSERIAL PRIMARY KEY,
		number_encrypted TEXT NOT NULL,
		masked_number    VARCHAR(19) NOT NULL,
		owner_id         BIGINT NOT NULL REFERENCES bank.users (id),
		expiration_date  DATE NOT NULL,
		status           VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		balance          NUMERIC(19, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS cards_owner_id_idx ON bank.cards (owner_id)`,
	`INSERT INTO bank.roles (name) VALUES ('USER'), ('ADMIN') ON CONFLICT (name) DO NOTHING`,
}

// Migrate applies the schema at startup. Statements are idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

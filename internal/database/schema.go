package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; Migrate can run on every start.
// categories.id is referenced without ON DELETE so a referenced category
// cannot be hard-deleted.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	icon        TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS complaints (
	id               BIGSERIAL PRIMARY KEY,
	ticket_id        TEXT NOT NULL UNIQUE,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL,
	category_id      BIGINT NOT NULL REFERENCES categories(id),
	status           TEXT NOT NULL CHECK (status IN ('pending','verified','in_progress','completed','rejected')),
	priority         TEXT NOT NULL CHECK (priority IN ('low','medium','high','urgent')),
	location         TEXT NOT NULL,
	photo_url        TEXT,
	is_anonymous     BOOLEAN NOT NULL DEFAULT FALSE,
	reporter_name    TEXT NOT NULL,
	reporter_contact TEXT NOT NULL,
	version          BIGINT NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS complaints_created_at_idx ON complaints (created_at DESC);

CREATE TABLE IF NOT EXISTS complaint_responses (
	id             BIGSERIAL PRIMARY KEY,
	complaint_id   BIGINT NOT NULL REFERENCES complaints(id),
	message        TEXT NOT NULL,
	attachment_url TEXT,
	is_official    BOOLEAN NOT NULL DEFAULT FALSE,
	responder_name TEXT NOT NULL,
	responder_role TEXT NOT NULL CHECK (responder_role IN ('admin','petugas','warga')),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS complaint_responses_complaint_idx ON complaint_responses (complaint_id, created_at);

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	full_name     TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('admin','petugas','warga')),
	nik           TEXT,
	no_hp         TEXT,
	alamat        TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS notifications (
	id           BIGSERIAL PRIMARY KEY,
	user_email   TEXT NOT NULL,
	type         TEXT NOT NULL CHECK (type IN ('complaint_created','status_changed','response_added')),
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	is_read      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	complaint_id BIGINT
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (LOWER(user_email), created_at DESC);

CREATE TABLE IF NOT EXISTS activity_logs (
	id                 UUID PRIMARY KEY,
	complaint_id       BIGINT NOT NULL,
	ticket_id          TEXT NOT NULL,
	activity_type      TEXT NOT NULL,
	action_description TEXT NOT NULL,
	actor              TEXT NOT NULL,
	actor_role         TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS activity_logs_ticket_idx ON activity_logs (ticket_id, created_at DESC);
`

// Migrate creates the tables the portal needs
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

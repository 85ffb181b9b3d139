// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of *sql.DB and *sql.Tx used by the stores.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are unix milliseconds so sqlite and postgres scan them identically.
const schema = `
-- Deployment (single row)
CREATE TABLE IF NOT EXISTS deployment (
    id INTEGER PRIMARY KEY,
    instance_address TEXT NOT NULL,
    protocol_id INTEGER NOT NULL,
    public_key TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

-- Ciphertexts held by the coprocessor, with their decryption ACL
CREATE TABLE IF NOT EXISTS ciphertext (
    handle TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'private' CHECK (visibility IN ('private', 'public')),
    created_at BIGINT NOT NULL
);

-- Answered flags: one row per (participant, question)
CREATE TABLE IF NOT EXISTS answer (
    participant TEXT NOT NULL,
    question_id INTEGER NOT NULL,
    answered_at BIGINT NOT NULL,
    PRIMARY KEY (participant, question_id)
);

CREATE INDEX IF NOT EXISTS idx_answer_question_id ON answer(question_id);

-- Encrypted option counters
CREATE TABLE IF NOT EXISTS tally_counter (
    question_id INTEGER NOT NULL,
    option_index INTEGER NOT NULL,
    handle TEXT NOT NULL REFERENCES ciphertext(handle),
    PRIMARY KEY (question_id, option_index)
);

-- Reveal requests; absence of a row means the question is still private
CREATE TABLE IF NOT EXISTS reveal (
    question_id INTEGER PRIMARY KEY,
    status TEXT NOT NULL CHECK (status IN ('publicly_requested')),
    requested_by TEXT NOT NULL,
    requested_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS reveal_handle (
    question_id INTEGER NOT NULL REFERENCES reveal(question_id),
    position INTEGER NOT NULL,
    handle TEXT NOT NULL,
    PRIMARY KEY (question_id, position)
);

-- Notifications
CREATE TABLE IF NOT EXISTS event_log (
    seq BIGINT PRIMARY KEY,
    kind TEXT NOT NULL,
    question_id INTEGER NOT NULL,
    payload TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_log_question_id ON event_log(question_id);
`

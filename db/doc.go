// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

	conn, err := db.Open(db.TypeSQLite, "sealed-survey.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite connections are limited to one open connection. Code running inside a
transaction must use the transaction, never the *sql.DB, or it will wait on
itself.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - deployment: Instance address, protocol id and public key (one row)
  - ciphertext: Ciphertexts by handle with their decryption ACL
  - answer: One row per participant per answered question
  - tally_counter: Current counter handle per question option
  - reveal: Questions whose counts were made public
  - reveal_handle: Handles frozen at the first reveal
  - event_log: Events in commit order

# Querier

Querier is satisfied by both *sql.DB and *sql.Tx, so stores can run inside
or outside a transaction.
*/
package db

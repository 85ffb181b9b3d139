// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Sealed Survey API server.

Sealed Survey runs a fixed list of multiple-choice questions whose answers
stay encrypted. Participants submit an encrypted one-hot choice with a proof
that it is in range; the server adds it to per-option encrypted counters
without learning it. Anyone may later ask for a question's counts to be made
public, after which the decryption service turns them into cleartext.

# Starting the Server

The key seed is the only required setting:

	KEY_SEED=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -key-seed ...

# Configuration

Required settings:

  - KEY_SEED (-key-seed): Secret the key holder's ElGamal key is derived from

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: sealed-survey.db)
  - INSTANCE_ADDRESS (-instance): Pin the survey instance address
  - QUESTIONS_FILE (-questions): JSON question list
  - DECRYPT_WORKERS, MAX_TALLY, MAX_OPTIONS, LOG_FORMAT

Settings may also come from a .env file.

# Architecture

  - survey: Question registry, answered flags, encrypted tallies, reveal
  - fhe: Exponential ElGamal coprocessor and ciphertext store
  - inputproof: Sealing and verifying encrypted choices
  - ledger: Serialized units of work and the event log
  - decryption: Asynchronous public decryption
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Request signatures
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main

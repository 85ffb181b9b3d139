// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: Connection string (default for sqlite: sealed-survey.db)
  - KeySeed: Secret the key holder's ElGamal key is derived from (required)
  - InstanceAddress: Pinned instance address (generated on first start if empty)
  - ProtocolID: Accepted encryption protocol id (default: 1)
  - QuestionsFile: JSON question list (default: built-in five questions)
  - DecryptWorkers: Decryption worker count (default: 2)
  - MaxTally: Largest recoverable count (default: 1048576)
  - MaxOptions: Largest option count per question (default: 16)
  - LogFormat: text or json (default: text on a terminal, json otherwise)

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	-key-seed     Key seed
	-instance     Instance address
	-protocol     Protocol id
	-questions    Questions file
	-workers      Decryption workers
	-max-tally    Largest recoverable count
	-max-options  Largest option count
	-log-format   Log format
	-env-file     Dotenv file (default .env, empty to skip)

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	KEY_SEED         → -key-seed
	INSTANCE_ADDRESS → -instance
	PROTOCOL_ID      → -protocol
	QUESTIONS_FILE   → -questions
	DECRYPT_WORKERS  → -workers
	MAX_TALLY        → -max-tally
	MAX_OPTIONS      → -max-options
	LOG_FORMAT       → -log-format

Variables missing from the environment are read from the dotenv file.
CLI flags take precedence over environment variables, which take precedence
over the file.

# Validation

ParseFlags returns an error if:

  - KEY_SEED is missing
  - DATABASE_URL is missing for postgres
  - a numeric setting does not parse or is out of range
*/
package cliparse

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger serializes state-changing operations into atomic units of
// work. Each unit runs inside one database transaction under a process-wide
// lock, carries the identity of its caller and a single timestamp, and may
// emit events. Events are written to the event_log table in the same
// transaction and handed to subscribers only after commit, so an observer
// never sees an event for a write that was rolled back.
package ledger

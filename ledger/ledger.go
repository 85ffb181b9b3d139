// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a notification emitted by a committed unit of work.
type Event struct {
	Seq        int64           `json:"seq"`
	Kind       string          `json:"kind"`
	QuestionID int             `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Ledger runs units of work one at a time, each inside its own transaction.
// A unit either commits all of its writes and events or none of them.
type Ledger struct {
	db  *sql.DB
	now func() time.Time

	mu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:   db,
		now:  time.Now,
		subs: make(map[int]chan Event),
	}
}

// DB returns the underlying handle for read-only queries outside a unit.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Unit is the view a unit of work has of the ledger. It must not be used
// after the function passed to Execute returns.
type Unit struct {
	ctx    context.Context
	tx     *sql.Tx
	caller common.Address
	at     time.Time
	events []Event
}

func (u *Unit) Context() context.Context { return u.ctx }
func (u *Unit) Tx() *sql.Tx              { return u.tx }
func (u *Unit) Caller() common.Address   { return u.caller }
func (u *Unit) Time() time.Time          { return u.at }

// Emit queues an event. It is persisted with the unit's writes and delivered
// to subscribers only once the unit commits.
func (u *Unit) Emit(kind string, questionID int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	u.events = append(u.events, Event{
		Kind:       kind,
		QuestionID: questionID,
		Payload:    body,
		CreatedAt:  u.at,
	})
	return nil
}

// Execute runs fn as a single unit of work on behalf of caller. If fn returns
// an error the transaction is rolled back and no event is published.
func (l *Ledger) Execute(ctx context.Context, caller common.Address, fn func(*Unit) error) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	u := &Unit{ctx: ctx, tx: tx, caller: caller, at: l.now()}
	if err := fn(u); err != nil {
		return nil, err
	}

	if len(u.events) > 0 {
		if err := l.appendEvents(ctx, tx, u.events); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.publish(u.events)
	return u.events, nil
}

func (l *Ledger) appendEvents(ctx context.Context, tx *sql.Tx, events []Event) error {
	var last int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM event_log`).Scan(&last)
	if err != nil {
		return fmt.Errorf("failed to read event sequence: %w", err)
	}

	for i := range events {
		last++
		events[i].Seq = last
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_log (seq, kind, question_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, events[i].Seq, events[i].Kind, events[i].QuestionID, string(events[i].Payload), events[i].CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to persist %s event: %w", events[i].Kind, err)
		}
	}
	return nil
}

// Subscribe returns a channel receiving every event committed from now on and
// a function that cancels the subscription. Slow subscribers miss events
// rather than stall writers; the event log keeps the full history.
func (l *Ledger) Subscribe(buffer int) (<-chan Event, func()) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	id := l.nextSub
	l.nextSub++
	ch := make(chan Event, buffer)
	l.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subsMu.Lock()
			delete(l.subs, id)
			l.subsMu.Unlock()
			close(ch)
		})
	}
}

func (l *Ledger) publish(events []Event) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	for _, ev := range events {
		for id, ch := range l.subs {
			select {
			case ch <- ev:
			default:
				slog.Warn("dropping event for slow subscriber", "subscriber", id, "seq", ev.Seq, "kind", ev.Kind)
			}
		}
	}
}

// Events returns up to limit committed events with seq > after, oldest first.
func (l *Ledger) Events(ctx context.Context, after int64, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, kind, question_id, payload, created_at
		FROM event_log
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var payload string
		var createdAt int64
		if err := rows.Scan(&ev.Seq, &ev.Kind, &ev.QuestionID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Payload = json.RawMessage(payload)
		ev.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

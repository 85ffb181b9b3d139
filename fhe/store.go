// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielhkuo/sealed-survey/db"
)

// Visibility is the decryption ACL of a ciphertext.
type Visibility string

const (
	Private Visibility = "private"
	Public  Visibility = "public"
)

var ErrUnknownHandle = errors.New("unknown ciphertext handle")

// Record is a stored ciphertext.
type Record struct {
	Handle     Handle
	Ciphertext Ciphertext
	Visibility Visibility
}

// Store persists ciphertexts by handle.
type Store interface {
	Put(ctx context.Context, h Handle, c Ciphertext) error
	Get(ctx context.Context, h Handle) (Record, error)
	SetVisibility(ctx context.Context, h Handle, v Visibility) error
}

// SQLStore keeps ciphertexts in the ciphertext table. It runs against either
// the database or an open transaction.
type SQLStore struct {
	q db.Querier
}

func NewSQLStore(q db.Querier) *SQLStore {
	return &SQLStore{q: q}
}

func (s *SQLStore) Put(ctx context.Context, h Handle, c Ciphertext) error {
	body, err := c.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode ciphertext: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO ciphertext (handle, body, visibility, created_at)
		VALUES ($1, $2, $3, $4)
	`, h.Hex(), hex.EncodeToString(body), string(Private), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert ciphertext: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, h Handle) (Record, error) {
	var body, visibility string
	err := s.q.QueryRowContext(ctx, `
		SELECT body, visibility FROM ciphertext WHERE handle = $1
	`, h.Hex()).Scan(&body, &visibility)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h.Hex())
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query ciphertext: %w", err)
	}

	raw, err := hex.DecodeString(body)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	c, err := UnmarshalCiphertext(raw)
	if err != nil {
		return Record{}, err
	}

	return Record{Handle: h, Ciphertext: c, Visibility: Visibility(visibility)}, nil
}

func (s *SQLStore) SetVisibility(ctx context.Context, h Handle, v Visibility) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE ciphertext SET visibility = $1 WHERE handle = $2
	`, string(v), h.Hex())
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h.Hex())
	}
	return nil
}

// MemStore is an in-process Store.
type MemStore struct {
	mu      sync.RWMutex
	records map[Handle]Record
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Handle]Record)}
}

func (s *MemStore) Put(_ context.Context, h Handle, c Ciphertext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[h]; ok {
		return fmt.Errorf("duplicate handle %s", h.Hex())
	}
	s.records[h] = Record{Handle: h, Ciphertext: c, Visibility: Private}
	return nil
}

func (s *MemStore) Get(_ context.Context, h Handle) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[h]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h.Hex())
	}
	return rec, nil
}

func (s *MemStore) SetVisibility(_ context.Context, h Handle, v Visibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h.Hex())
	}
	rec.Visibility = v
	s.records[h] = rec
	return nil
}

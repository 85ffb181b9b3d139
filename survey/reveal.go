// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/db"
	"github.com/danielhkuo/sealed-survey/fhe"
)

type RevealStatus string

const (
	StatusPrivate           RevealStatus = "private"
	StatusPubliclyRequested RevealStatus = "publicly_requested"
)

// RevealState records whether a question's counts were made public and, if
// so, which counter handles were authorized.
type RevealState struct {
	Status      RevealStatus
	RequestedBy common.Address
	RequestedAt time.Time
	Handles     []fhe.Handle
}

func loadReveal(ctx context.Context, q db.Querier, questionID int) (RevealState, error) {
	var status, requestedBy string
	var requestedAt int64
	err := q.QueryRowContext(ctx, `
		SELECT status, requested_by, requested_at FROM reveal WHERE question_id = $1
	`, questionID).Scan(&status, &requestedBy, &requestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RevealState{Status: StatusPrivate}, nil
	}
	if err != nil {
		return RevealState{}, fmt.Errorf("failed to query reveal: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT handle FROM reveal_handle WHERE question_id = $1 ORDER BY position
	`, questionID)
	if err != nil {
		return RevealState{}, fmt.Errorf("failed to query revealed handles: %w", err)
	}
	defer rows.Close()

	state := RevealState{
		Status:      RevealStatus(status),
		RequestedBy: common.HexToAddress(requestedBy),
		RequestedAt: time.UnixMilli(requestedAt),
		Handles:     []fhe.Handle{},
	}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return RevealState{}, fmt.Errorf("failed to scan revealed handle: %w", err)
		}
		state.Handles = append(state.Handles, common.HexToHash(h))
	}
	return state, rows.Err()
}

func recordReveal(ctx context.Context, q db.Querier, questionID int, state RevealState) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO reveal (question_id, status, requested_by, requested_at)
		VALUES ($1, $2, $3, $4)
	`, questionID, string(state.Status), state.RequestedBy.Hex(), state.RequestedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record reveal: %w", err)
	}

	for i, h := range state.Handles {
		_, err := q.ExecContext(ctx, `
			INSERT INTO reveal_handle (question_id, position, handle)
			VALUES ($1, $2, $3)
		`, questionID, i, h.Hex())
		if err != nil {
			return fmt.Errorf("failed to record revealed handle: %w", err)
		}
	}
	return nil
}

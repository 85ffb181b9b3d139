// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/db"
)

func hasAnswered(ctx context.Context, q db.Querier, participant common.Address, questionID int) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM answer WHERE participant = $1 AND question_id = $2
	`, participant.Hex(), questionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query answer: %w", err)
	}
	return n > 0, nil
}

// recordAnswer sets the answered flag. The primary key makes the check and
// the set a single statement.
func recordAnswer(ctx context.Context, q db.Querier, participant common.Address, questionID int, at time.Time) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO answer (participant, question_id, answered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant, question_id) DO NOTHING
	`, participant.Hex(), questionID, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if n == 0 {
		return ErrAlreadyAnswered
	}
	return nil
}

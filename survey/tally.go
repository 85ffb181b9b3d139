// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/db"
	"github.com/danielhkuo/sealed-survey/fhe"
)

// initCounters creates optionCount encrypted zero counters for a question
// that has none yet. Existing counters are left alone but must match.
func initCounters(ctx context.Context, q db.Querier, cop *fhe.Coprocessor, questionID, optionCount int) error {
	existing, err := counters(ctx, q, questionID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		if len(existing) != optionCount {
			return fmt.Errorf("%w: question %d has %d counters, want %d",
				ErrCatalogueMismatch, questionID, len(existing), optionCount)
		}
		return nil
	}

	for k := 0; k < optionCount; k++ {
		zero, err := cop.TrivialEncrypt(ctx, 0)
		if err != nil {
			return fmt.Errorf("failed to encrypt zero counter: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO tally_counter (question_id, option_index, handle)
			VALUES ($1, $2, $3)
		`, questionID, k, zero.Hex())
		if err != nil {
			return fmt.Errorf("failed to create counter: %w", err)
		}
	}
	return nil
}

// counters returns the question's counter handles; position k counts option k.
func counters(ctx context.Context, q db.Querier, questionID int) ([]fhe.Handle, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT handle FROM tally_counter
		WHERE question_id = $1
		ORDER BY option_index
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	handles := []fhe.Handle{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		handles = append(handles, common.HexToHash(h))
	}
	return handles, rows.Err()
}

// applyVote adds the one-hot encoding of choice into the question's counters.
// Position k receives Select(Eq(choice, k), 1, 0), so exactly one counter
// grows by one and nothing learns which.
func applyVote(ctx context.Context, q db.Querier, cop *fhe.Coprocessor, questionID int, choice fhe.Handle) error {
	current, err := counters(ctx, q, questionID)
	if err != nil {
		return err
	}

	one, err := cop.TrivialEncrypt(ctx, 1)
	if err != nil {
		return err
	}
	zero, err := cop.TrivialEncrypt(ctx, 0)
	if err != nil {
		return err
	}

	for k, counter := range current {
		hit, err := cop.Eq(ctx, choice, uint64(k))
		if err != nil {
			return fmt.Errorf("failed to compare option %d: %w", k, err)
		}
		inc, err := cop.Select(ctx, hit, one, zero)
		if err != nil {
			return fmt.Errorf("failed to select increment for option %d: %w", k, err)
		}
		next, err := cop.Add(ctx, counter, inc)
		if err != nil {
			return fmt.Errorf("failed to add to counter %d: %w", k, err)
		}

		_, err = q.ExecContext(ctx, `
			UPDATE tally_counter SET handle = $1
			WHERE question_id = $2 AND option_index = $3
		`, next.Hex(), questionID, k)
		if err != nil {
			return fmt.Errorf("failed to update counter %d: %w", k, err)
		}
	}
	return nil
}

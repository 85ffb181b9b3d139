// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/danielhkuo/sealed-survey/db"
	"github.com/danielhkuo/sealed-survey/fhe"
)

// Deployment identifies this survey instance. Proofs are bound to Instance,
// so a sealed answer cannot be replayed against another deployment.
type Deployment struct {
	Instance  common.Address
	Protocol  uint8
	PublicKey fhe.PublicKey
	CreatedAt time.Time
}

// newInstanceAddress derives a fresh address from a random UUID.
func newInstanceAddress() common.Address {
	id := uuid.New()
	return common.BytesToAddress(crypto.Keccak256(id[:])[12:])
}

// ensureDeployment loads the stored deployment or creates it on first start.
// A configured instance, protocol or key that disagrees with the stored row
// is an error: earlier answers were bound to the stored values.
func ensureDeployment(ctx context.Context, q db.Querier, want Deployment, at time.Time) (Deployment, error) {
	pk, err := want.PublicKey.MarshalBinary()
	if err != nil {
		return Deployment{}, err
	}

	var instance, storedKey string
	var protocol int
	var createdAt int64
	err = q.QueryRowContext(ctx, `
		SELECT instance_address, protocol_id, public_key, created_at FROM deployment WHERE id = 1
	`).Scan(&instance, &protocol, &storedKey, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		if want.Instance == (common.Address{}) {
			want.Instance = newInstanceAddress()
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO deployment (id, instance_address, protocol_id, public_key, created_at)
			VALUES (1, $1, $2, $3, $4)
		`, want.Instance.Hex(), int(want.Protocol), hex.EncodeToString(pk), at.UnixMilli())
		if err != nil {
			return Deployment{}, fmt.Errorf("failed to create deployment: %w", err)
		}
		want.CreatedAt = at
		return want, nil
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("failed to query deployment: %w", err)
	}

	stored := common.HexToAddress(instance)
	if want.Instance != (common.Address{}) && want.Instance != stored {
		return Deployment{}, fmt.Errorf("configured instance %s does not match deployed instance %s", want.Instance.Hex(), stored.Hex())
	}
	if protocol != int(want.Protocol) {
		return Deployment{}, fmt.Errorf("configured protocol %d does not match deployed protocol %d", want.Protocol, protocol)
	}
	raw, err := hex.DecodeString(storedKey)
	if err != nil || !bytes.Equal(raw, pk) {
		return Deployment{}, fmt.Errorf("configured key does not match the deployed public key")
	}

	want.Instance = stored
	want.CreatedAt = time.UnixMilli(createdAt)
	return want, nil
}

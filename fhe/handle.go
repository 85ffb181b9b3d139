// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Handle is an opaque 32-byte reference to a ciphertext held by the coprocessor.
type Handle = common.Hash

type opcode byte

const (
	opIngest opcode = iota + 1
	opTrivial
	opAdd
	opEq
	opSelect
)

// deriveHandle hashes the operation, a fresh nonce and the operands so
// every produced ciphertext gets a distinct handle.
func deriveHandle(op opcode, operands ...[]byte) Handle {
	nonce := uuid.New()
	parts := make([][]byte, 0, len(operands)+2)
	parts = append(parts, []byte{byte(op)}, nonce[:])
	parts = append(parts, operands...)
	return crypto.Keccak256Hash(parts...)
}

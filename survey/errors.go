// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"

	"github.com/danielhkuo/sealed-survey/inputproof"
)

var (
	// ErrOutOfRange reports an unknown question ordinal.
	ErrOutOfRange = errors.New("question out of range")

	// ErrAlreadyAnswered reports a second submission by the same participant
	// for the same question.
	ErrAlreadyAnswered = errors.New("already answered")

	ErrProofVerificationFailed       = inputproof.ErrProofVerificationFailed
	ErrUnsupportedEncryptionProtocol = inputproof.ErrUnsupportedEncryptionProtocol

	// ErrCatalogueMismatch reports stored tallies that do not fit the
	// configured questions.
	ErrCatalogueMismatch = errors.New("question catalogue does not match stored tallies")
)

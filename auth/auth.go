// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureHeader carries the caller's signature over the request.
const SignatureHeader = "X-Signature"

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidAddress   = errors.New("invalid address")
)

// RequestDigest is the personal-sign hash of a request:
// keccak256("\x19Ethereum Signed Message:\n32" || keccak256(METHOD " " PATH "\n" BODY)).
func RequestDigest(method, path string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(body)+2)
	msg = append(msg, method...)
	msg = append(msg, ' ')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, body...)

	inner := crypto.Keccak256(msg)
	return crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), inner)
}

// SignRequest signs a request the way a wallet would and returns the
// 0x-prefixed 65 byte signature for SignatureHeader.
func SignRequest(key *ecdsa.PrivateKey, method, path string, body []byte) (string, error) {
	sig, err := crypto.Sign(RequestDigest(method, path, body), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address that produced sig over digest. Both
// 0/1 and 27/28 recovery ids are accepted.
func RecoverSigner(digest []byte, sig string) (common.Address, error) {
	raw, err := hexutil.Decode(sig)
	if err != nil || len(raw) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	if raw[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, ErrInvalidSignature
	}

	pub, err := crypto.SigToPub(digest, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// RecoverCaller authenticates r. body must be the already-read request body.
func RecoverCaller(r *http.Request, body []byte) (common.Address, error) {
	sig := strings.TrimSpace(r.Header.Get(SignatureHeader))
	if sig == "" {
		return common.Address{}, ErrMissingSignature
	}
	return RecoverSigner(RequestDigest(r.Method, r.URL.Path, body), sig)
}

// ParseAddress accepts a 0x-prefixed 20 byte hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) || (!strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X")) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package inputproof

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/fhe"
)

// ProtocolElGamalRistretto255 tags inputs encrypted with exponential ElGamal
// over ristretto255 and proven with a disjunctive Chaum-Pedersen proof.
const ProtocolElGamalRistretto255 uint8 = 1

var (
	ErrProofVerificationFailed       = errors.New("proof verification failed")
	ErrUnsupportedEncryptionProtocol = errors.New("unsupported encryption protocol")
)

// Sealed is a client-produced encrypted choice: a tagged ciphertext and the
// proof that it encrypts a valid option index.
type Sealed struct {
	Ciphertext []byte
	Proof      []byte
}

// Seal encrypts choice under pk and proves it lies in [0, optionCount) for
// the given submitter and instance. It is the client half of Verify.
func Seal(rnd io.Reader, pk fhe.PublicKey, bind Binding, choice, optionCount int) (Sealed, error) {
	if optionCount < 1 || optionCount > MaxOptions {
		return Sealed{}, fmt.Errorf("option count %d out of bounds", optionCount)
	}
	if choice < 0 || choice >= optionCount {
		return Sealed{}, fmt.Errorf("choice %d not in [0, %d)", choice, optionCount)
	}

	ct, r := fhe.Encrypt(pk, uint64(choice), rnd)
	p, err := prove(rnd, bind, pk, ct, r, choice, optionCount)
	if err != nil {
		return Sealed{}, fmt.Errorf("failed to build proof: %w", err)
	}

	body, err := ct.MarshalBinary()
	if err != nil {
		return Sealed{}, err
	}
	proof, err := p.MarshalBinary()
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{
		Ciphertext: append([]byte{bind.Protocol}, body...),
		Proof:      proof,
	}, nil
}

// Verifier checks sealed inputs against one public key and protocol. It has
// no side effects and is safe for concurrent use.
type Verifier struct {
	pk       fhe.PublicKey
	protocol uint8
}

func NewVerifier(pk fhe.PublicKey, protocol uint8) *Verifier {
	return &Verifier{pk: pk, protocol: protocol}
}

// Protocol returns the protocol id inputs must carry.
func (v *Verifier) Protocol() uint8 {
	return v.protocol
}

// Verify checks that in encrypts a value in [0, optionCount) and was produced
// for submitter on instance. On success it returns the decoded ciphertext.
func (v *Verifier) Verify(in Sealed, submitter, instance common.Address, optionCount int) (fhe.Ciphertext, error) {
	if len(in.Ciphertext) == 0 {
		return fhe.Ciphertext{}, fmt.Errorf("%w: empty ciphertext", ErrProofVerificationFailed)
	}
	if in.Ciphertext[0] != v.protocol {
		return fhe.Ciphertext{}, fmt.Errorf("%w: got %d, want %d",
			ErrUnsupportedEncryptionProtocol, in.Ciphertext[0], v.protocol)
	}
	if optionCount < 1 || optionCount > MaxOptions {
		return fhe.Ciphertext{}, fmt.Errorf("%w: option count %d", ErrProofVerificationFailed, optionCount)
	}

	ct, err := fhe.UnmarshalCiphertext(in.Ciphertext[1:])
	if err != nil {
		return fhe.Ciphertext{}, fmt.Errorf("%w: %v", ErrProofVerificationFailed, err)
	}
	p, err := unmarshalRangeProof(in.Proof)
	if err != nil {
		return fhe.Ciphertext{}, fmt.Errorf("%w: %v", ErrProofVerificationFailed, err)
	}
	if len(p.c) != optionCount {
		return fhe.Ciphertext{}, fmt.Errorf("%w: proof covers %d options, question has %d",
			ErrProofVerificationFailed, len(p.c), optionCount)
	}

	bind := Binding{Protocol: v.protocol, Instance: instance, Submitter: submitter}
	ok, err := p.verify(bind, v.pk, ct)
	if err != nil {
		return fhe.Ciphertext{}, fmt.Errorf("%w: %v", ErrProofVerificationFailed, err)
	}
	if !ok {
		return fhe.Ciphertext{}, ErrProofVerificationFailed
	}
	return ct, nil
}

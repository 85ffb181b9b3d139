// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
)

// Suite is the prime-order group every ciphertext lives in.
var Suite = group.Ristretto255

const (
	// ElementSize is the length of an encoded group element.
	ElementSize = 32
	// ScalarSize is the length of an encoded scalar.
	ScalarSize = 32
	// CiphertextSize is the length of an encoded ciphertext (U || V).
	CiphertextSize = 2 * ElementSize

	keyDST = "sealed-survey/fhe/key/v1"
)

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// PublicKey is an ElGamal public key Y = x*G.
type PublicKey struct {
	Y group.Element
}

// MarshalBinary encodes the key point.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.Y.MarshalBinary()
}

// UnmarshalPublicKey decodes a key point produced by MarshalBinary.
func UnmarshalPublicKey(b []byte) (PublicKey, error) {
	y := Suite.NewElement()
	if err := y.UnmarshalBinary(b); err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key: %w", err)
	}
	return PublicKey{Y: y}, nil
}

// SecretKey is the decryption key held by the key holder.
type SecretKey struct {
	x  group.Scalar
	pk PublicKey
}

// DeriveSecretKey deterministically derives a key from a seed.
func DeriveSecretKey(seed []byte) *SecretKey {
	x := Suite.HashToScalar(seed, []byte(keyDST))
	return newSecretKey(x)
}

// GenerateSecretKey samples a fresh key.
func GenerateSecretKey(rnd io.Reader) *SecretKey {
	return newSecretKey(Suite.RandomNonZeroScalar(rnd))
}

func newSecretKey(x group.Scalar) *SecretKey {
	return &SecretKey{
		x:  x,
		pk: PublicKey{Y: Suite.NewElement().MulGen(x)},
	}
}

// PublicKey returns the matching public key.
func (sk *SecretKey) PublicKey() PublicKey {
	return sk.pk
}

// Ciphertext is an exponential ElGamal ciphertext (r*G, m*G + r*Y).
type Ciphertext struct {
	U group.Element
	V group.Element
}

// Encrypt encrypts m under pk and returns the randomness used.
func Encrypt(pk PublicKey, m uint64, rnd io.Reader) (Ciphertext, group.Scalar) {
	r := Suite.RandomNonZeroScalar(rnd)
	return EncryptWith(pk, m, r), r
}

// EncryptWith encrypts m under pk using the randomness r.
func EncryptWith(pk PublicKey, m uint64, r group.Scalar) Ciphertext {
	mask := Suite.NewElement().Mul(pk.Y, r)
	lifted := Suite.NewElement().MulGen(Suite.NewScalar().SetUint64(m))
	return Ciphertext{
		U: Suite.NewElement().MulGen(r),
		V: Suite.NewElement().Add(lifted, mask),
	}
}

// TrivialEncrypt returns the noiseless encryption (0, m*G) of a public constant.
func TrivialEncrypt(m uint64) Ciphertext {
	return Ciphertext{
		U: Suite.Identity(),
		V: Suite.NewElement().MulGen(Suite.NewScalar().SetUint64(m)),
	}
}

// Add returns a ciphertext of the sum of both plaintexts.
func Add(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		U: Suite.NewElement().Add(a.U, b.U),
		V: Suite.NewElement().Add(a.V, b.V),
	}
}

// Rerandomize returns a fresh-looking ciphertext of the same plaintext.
func Rerandomize(pk PublicKey, c Ciphertext, rnd io.Reader) Ciphertext {
	zero, _ := Encrypt(pk, 0, rnd)
	return Add(c, zero)
}

// MarshalBinary encodes the ciphertext as U || V.
func (c Ciphertext) MarshalBinary() ([]byte, error) {
	u, err := c.U.MarshalBinary()
	if err != nil {
		return nil, err
	}
	v, err := c.V.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(u, v...), nil
}

// UnmarshalCiphertext decodes and validates U || V.
func UnmarshalCiphertext(b []byte) (Ciphertext, error) {
	if len(b) != CiphertextSize {
		return Ciphertext{}, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedCiphertext, CiphertextSize, len(b))
	}
	u := Suite.NewElement()
	if err := u.UnmarshalBinary(b[:ElementSize]); err != nil {
		return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	v := Suite.NewElement()
	if err := v.UnmarshalBinary(b[ElementSize:]); err != nil {
		return Ciphertext{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	return Ciphertext{U: u, V: v}, nil
}

// decryptPoint recovers m*G.
func (sk *SecretKey) decryptPoint(c Ciphertext) group.Element {
	shared := Suite.NewElement().Mul(c.U, sk.x)
	return Suite.NewElement().Add(c.V, Suite.NewElement().Neg(shared))
}

// Matches reports whether c encrypts m, without solving a discrete log.
func (sk *SecretKey) Matches(c Ciphertext, m uint64) bool {
	want := Suite.NewElement().MulGen(Suite.NewScalar().SetUint64(m))
	return sk.decryptPoint(c).IsEqual(want)
}

// Decrypt recovers a small plaintext using the table.
func (sk *SecretKey) Decrypt(c Ciphertext, table *DlogTable) (uint64, error) {
	return table.Solve(sk.decryptPoint(c))
}

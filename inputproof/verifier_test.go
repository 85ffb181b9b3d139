// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package inputproof

import (
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/sealed-survey/fhe"
)

var (
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob      = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	instance = common.HexToAddress("0x5eA1ed0000000000000000000000000000000001")
)

func newTestKey(t *testing.T) (*fhe.SecretKey, *Verifier) {
	t.Helper()
	sk := fhe.GenerateSecretKey(rand.Reader)
	return sk, NewVerifier(sk.PublicKey(), ProtocolElGamalRistretto255)
}

func aliceBinding() Binding {
	return Binding{Protocol: ProtocolElGamalRistretto255, Instance: instance, Submitter: alice}
}

func TestSealAndVerify(t *testing.T) {
	sk, v := newTestKey(t)

	for _, n := range []int{1, 3, 4} {
		for choice := 0; choice < n; choice++ {
			in, err := Seal(rand.Reader, sk.PublicKey(), aliceBinding(), choice, n)
			require.NoError(t, err)

			ct, err := v.Verify(in, alice, instance, n)
			require.NoError(t, err, "n=%d choice=%d", n, choice)
			assert.True(t, sk.Matches(ct, uint64(choice)))
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	sk, v := newTestKey(t)
	in, err := Seal(rand.Reader, sk.PublicKey(), aliceBinding(), 2, 4)
	require.NoError(t, err)

	otherInstance := common.HexToAddress("0x5eA1ed0000000000000000000000000000000002")

	tests := []struct {
		name      string
		submitter common.Address
		instance  common.Address
		n         int
	}{
		{"other submitter", bob, instance, 4},
		{"other instance", alice, otherInstance, 4},
		{"fewer options", alice, instance, 3},
		{"more options", alice, instance, 5},
		{"zero options", alice, instance, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(in, tt.submitter, tt.instance, tt.n)
			assert.ErrorIs(t, err, ErrProofVerificationFailed)
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	sk, v := newTestKey(t)
	in, err := Seal(rand.Reader, sk.PublicKey(), aliceBinding(), 1, 3)
	require.NoError(t, err)

	t.Run("swapped ciphertext", func(t *testing.T) {
		other, err := Seal(rand.Reader, sk.PublicKey(), aliceBinding(), 1, 3)
		require.NoError(t, err)
		_, err = v.Verify(Sealed{Ciphertext: other.Ciphertext, Proof: in.Proof}, alice, instance, 3)
		assert.ErrorIs(t, err, ErrProofVerificationFailed)
	})

	t.Run("flipped proof byte", func(t *testing.T) {
		proof := append([]byte(nil), in.Proof...)
		proof[5] ^= 0x01
		_, err := v.Verify(Sealed{Ciphertext: in.Ciphertext, Proof: proof}, alice, instance, 3)
		assert.ErrorIs(t, err, ErrProofVerificationFailed)
	})

	t.Run("truncated proof", func(t *testing.T) {
		_, err := v.Verify(Sealed{Ciphertext: in.Ciphertext, Proof: in.Proof[:10]}, alice, instance, 3)
		assert.ErrorIs(t, err, ErrProofVerificationFailed)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := v.Verify(Sealed{}, alice, instance, 3)
		assert.ErrorIs(t, err, ErrProofVerificationFailed)
	})

	t.Run("short ciphertext", func(t *testing.T) {
		_, err := v.Verify(Sealed{Ciphertext: in.Ciphertext[:20], Proof: in.Proof}, alice, instance, 3)
		assert.ErrorIs(t, err, ErrProofVerificationFailed)
	})
}

func TestVerifyUnsupportedProtocol(t *testing.T) {
	sk, v := newTestKey(t)
	bind := aliceBinding()
	bind.Protocol = 7

	in, err := Seal(rand.Reader, sk.PublicKey(), bind, 0, 2)
	require.NoError(t, err)

	_, err = v.Verify(in, alice, instance, 2)
	assert.ErrorIs(t, err, ErrUnsupportedEncryptionProtocol)
	assert.NotErrorIs(t, err, ErrProofVerificationFailed)
}

func TestProofForOutOfRangeValueFails(t *testing.T) {
	sk, v := newTestKey(t)
	pk := sk.PublicKey()

	// Encrypt 4 but claim it is one of 0..3.
	ct, r := fhe.Encrypt(pk, 4, rand.Reader)
	for claim := 0; claim < 4; claim++ {
		p, err := prove(rand.Reader, aliceBinding(), pk, ct, r, claim, 4)
		require.NoError(t, err)

		body, err := ct.MarshalBinary()
		require.NoError(t, err)
		proof, err := p.MarshalBinary()
		require.NoError(t, err)

		in := Sealed{Ciphertext: append([]byte{ProtocolElGamalRistretto255}, body...), Proof: proof}
		_, err = v.Verify(in, alice, instance, 4)
		assert.ErrorIs(t, err, ErrProofVerificationFailed, "claim %d", claim)
	}
}

func TestSealRejectsInvalidChoice(t *testing.T) {
	sk, _ := newTestKey(t)
	_, err := Seal(rand.Reader, sk.PublicKey(), aliceBinding(), 4, 4)
	assert.Error(t, err)
	_, err = Seal(rand.Reader, sk.PublicKey(), aliceBinding(), -1, 4)
	assert.Error(t, err)
}

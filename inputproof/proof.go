// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package inputproof

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/fhe"
)

const challengeDST = "sealed-survey/inputproof/challenge/v1"

// MaxOptions is the largest range a proof can cover (n is encoded in one byte).
const MaxOptions = 255

var errBadProofEncoding = errors.New("bad proof encoding")

// Binding ties a proof to one submitter of one deployed instance.
type Binding struct {
	Protocol  uint8
	Instance  common.Address
	Submitter common.Address
}

// rangeProof is a disjunctive Chaum-Pedersen proof that (U, V) encrypts some
// i in [0, n): for every i it holds a challenge share and a response, and the
// shares sum to the Fiat-Shamir challenge.
type rangeProof struct {
	c []group.Scalar
	z []group.Scalar
}

// shifted returns V - i*G, which is r*Y exactly when the ciphertext encrypts i.
func shifted(ct fhe.Ciphertext, i int) group.Element {
	iG := fhe.Suite.NewElement().MulGen(fhe.Suite.NewScalar().SetUint64(uint64(i)))
	return fhe.Suite.NewElement().Add(ct.V, fhe.Suite.NewElement().Neg(iG))
}

// commitments recomputes a = z*G - c*U and b = z*Y - c*(V - i*G).
func commitments(pk fhe.PublicKey, ct fhe.Ciphertext, i int, c, z group.Scalar) (group.Element, group.Element) {
	a := fhe.Suite.NewElement().Add(
		fhe.Suite.NewElement().MulGen(z),
		fhe.Suite.NewElement().Neg(fhe.Suite.NewElement().Mul(ct.U, c)),
	)
	b := fhe.Suite.NewElement().Add(
		fhe.Suite.NewElement().Mul(pk.Y, z),
		fhe.Suite.NewElement().Neg(fhe.Suite.NewElement().Mul(shifted(ct, i), c)),
	)
	return a, b
}

func challenge(bind Binding, pk fhe.PublicKey, ct fhe.Ciphertext, n int, commits []group.Element) (group.Scalar, error) {
	var buf bytes.Buffer
	buf.WriteByte(bind.Protocol)
	buf.Write(bind.Instance.Bytes())
	buf.Write(bind.Submitter.Bytes())
	buf.WriteByte(byte(n))

	points := append([]group.Element{pk.Y, ct.U, ct.V}, commits...)
	for _, p := range points {
		b, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return fhe.Suite.HashToScalar(buf.Bytes(), []byte(challengeDST)), nil
}

// prove builds the proof for a ciphertext of choice made with randomness r.
func prove(rnd io.Reader, bind Binding, pk fhe.PublicKey, ct fhe.Ciphertext, r group.Scalar, choice, n int) (rangeProof, error) {
	p := rangeProof{c: make([]group.Scalar, n), z: make([]group.Scalar, n)}
	commits := make([]group.Element, 0, 2*n)

	w := fhe.Suite.RandomScalar(rnd)
	fakeSum := fhe.Suite.NewScalar()
	for i := 0; i < n; i++ {
		if i == choice {
			commits = append(commits,
				fhe.Suite.NewElement().MulGen(w),
				fhe.Suite.NewElement().Mul(pk.Y, w))
			continue
		}
		p.c[i] = fhe.Suite.RandomScalar(rnd)
		p.z[i] = fhe.Suite.RandomScalar(rnd)
		fakeSum = fhe.Suite.NewScalar().Add(fakeSum, p.c[i])
		a, b := commitments(pk, ct, i, p.c[i], p.z[i])
		commits = append(commits, a, b)
	}

	c, err := challenge(bind, pk, ct, n, commits)
	if err != nil {
		return rangeProof{}, err
	}
	p.c[choice] = fhe.Suite.NewScalar().Sub(c, fakeSum)
	p.z[choice] = fhe.Suite.NewScalar().Add(w, fhe.Suite.NewScalar().Mul(p.c[choice], r))
	return p, nil
}

func (p rangeProof) verify(bind Binding, pk fhe.PublicKey, ct fhe.Ciphertext) (bool, error) {
	n := len(p.c)
	commits := make([]group.Element, 0, 2*n)
	sum := fhe.Suite.NewScalar()
	for i := 0; i < n; i++ {
		a, b := commitments(pk, ct, i, p.c[i], p.z[i])
		commits = append(commits, a, b)
		sum = fhe.Suite.NewScalar().Add(sum, p.c[i])
	}

	c, err := challenge(bind, pk, ct, n, commits)
	if err != nil {
		return false, err
	}
	return c.IsEqual(sum), nil
}

// MarshalBinary encodes n || (c_0 || z_0) || ... || (c_{n-1} || z_{n-1}).
func (p rangeProof) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 1+len(p.c)*2*fhe.ScalarSize)
	out = append(out, byte(len(p.c)))
	for i := range p.c {
		c, err := p.c[i].MarshalBinary()
		if err != nil {
			return nil, err
		}
		z, err := p.z[i].MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, c...)
		out = append(out, z...)
	}
	return out, nil
}

func unmarshalRangeProof(b []byte) (rangeProof, error) {
	if len(b) < 1 {
		return rangeProof{}, errBadProofEncoding
	}
	n := int(b[0])
	if n == 0 || len(b) != 1+n*2*fhe.ScalarSize {
		return rangeProof{}, fmt.Errorf("%w: length %d for %d branches", errBadProofEncoding, len(b), n)
	}

	p := rangeProof{c: make([]group.Scalar, n), z: make([]group.Scalar, n)}
	off := 1
	for i := 0; i < n; i++ {
		p.c[i] = fhe.Suite.NewScalar()
		if err := p.c[i].UnmarshalBinary(b[off : off+fhe.ScalarSize]); err != nil {
			return rangeProof{}, fmt.Errorf("%w: %v", errBadProofEncoding, err)
		}
		off += fhe.ScalarSize
		p.z[i] = fhe.Suite.NewScalar()
		if err := p.z[i].UnmarshalBinary(b[off : off+fhe.ScalarSize]); err != nil {
			return rangeProof{}, fmt.Errorf("%w: %v", errBadProofEncoding, err)
		}
		off += fhe.ScalarSize
	}
	return p, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
)

// Coprocessor evaluates encrypted arithmetic on handles. Callers never see
// plaintexts: every operation takes and returns handles.
//
// Additions are homomorphic. Equality and select need the key holder, which
// answers with a freshly randomized ciphertext so outputs are unlinkable to
// their inputs.
type Coprocessor struct {
	store Store
	key   *SecretKey
	rand  io.Reader
}

func NewCoprocessor(store Store, key *SecretKey) *Coprocessor {
	return &Coprocessor{store: store, key: key, rand: rand.Reader}
}

// WithStore returns a coprocessor writing to s, typically a store bound to
// an open transaction.
func (c *Coprocessor) WithStore(s Store) *Coprocessor {
	cp := *c
	cp.store = s
	return &cp
}

// PublicKey is the key clients encrypt their inputs to.
func (c *Coprocessor) PublicKey() PublicKey {
	return c.key.PublicKey()
}

func (c *Coprocessor) put(ctx context.Context, h Handle, ct Ciphertext) (Handle, error) {
	if err := c.store.Put(ctx, h, ct); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (c *Coprocessor) load(ctx context.Context, h Handle) (Ciphertext, error) {
	rec, err := c.store.Get(ctx, h)
	if err != nil {
		return Ciphertext{}, err
	}
	return rec.Ciphertext, nil
}

// Ingest registers a verified client ciphertext.
func (c *Coprocessor) Ingest(ctx context.Context, ct Ciphertext) (Handle, error) {
	body, err := ct.MarshalBinary()
	if err != nil {
		return Handle{}, fmt.Errorf("failed to encode input: %w", err)
	}
	return c.put(ctx, deriveHandle(opIngest, body), ct)
}

// TrivialEncrypt stores the encryption of a public constant.
func (c *Coprocessor) TrivialEncrypt(ctx context.Context, m uint64) (Handle, error) {
	return c.put(ctx, deriveHandle(opTrivial, []byte(strconv.FormatUint(m, 10))), TrivialEncrypt(m))
}

// Add returns a handle to Enc(a + b).
func (c *Coprocessor) Add(ctx context.Context, a, b Handle) (Handle, error) {
	ca, err := c.load(ctx, a)
	if err != nil {
		return Handle{}, err
	}
	cb, err := c.load(ctx, b)
	if err != nil {
		return Handle{}, err
	}
	return c.put(ctx, deriveHandle(opAdd, a[:], b[:]), Add(ca, cb))
}

// Eq returns a handle to Enc(1) if a encrypts k and Enc(0) otherwise.
func (c *Coprocessor) Eq(ctx context.Context, a Handle, k uint64) (Handle, error) {
	ca, err := c.load(ctx, a)
	if err != nil {
		return Handle{}, err
	}

	var bit uint64
	if c.key.Matches(ca, k) {
		bit = 1
	}
	out, _ := Encrypt(c.key.PublicKey(), bit, c.rand)
	return c.put(ctx, deriveHandle(opEq, a[:], []byte(strconv.FormatUint(k, 10))), out)
}

// Select returns a handle to a re-randomized copy of ifTrue when cond
// encrypts 1, and of ifFalse otherwise.
func (c *Coprocessor) Select(ctx context.Context, cond, ifTrue, ifFalse Handle) (Handle, error) {
	cc, err := c.load(ctx, cond)
	if err != nil {
		return Handle{}, err
	}
	ct, err := c.load(ctx, ifTrue)
	if err != nil {
		return Handle{}, err
	}
	cf, err := c.load(ctx, ifFalse)
	if err != nil {
		return Handle{}, err
	}

	chosen := cf
	if c.key.Matches(cc, 1) {
		chosen = ct
	}
	out := Rerandomize(c.key.PublicKey(), chosen, c.rand)
	return c.put(ctx, deriveHandle(opSelect, cond[:], ifTrue[:], ifFalse[:]), out)
}

// AllowPublicDecryption marks h as decryptable by anyone. Repeating it is harmless.
func (c *Coprocessor) AllowPublicDecryption(ctx context.Context, h Handle) error {
	return c.store.SetVisibility(ctx, h, Public)
}

// IsPubliclyDecryptable reports the ACL state of h.
func (c *Coprocessor) IsPubliclyDecryptable(ctx context.Context, h Handle) (bool, error) {
	rec, err := c.store.Get(ctx, h)
	if err != nil {
		return false, err
	}
	return rec.Visibility == Public, nil
}

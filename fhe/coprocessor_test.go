// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"context"
	"crypto/rand"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/sealed-survey/db"
)

func decryptHandle(t *testing.T, s Store, sk *SecretKey, h Handle) uint64 {
	t.Helper()
	rec, err := s.Get(context.Background(), h)
	require.NoError(t, err)
	m, err := sk.Decrypt(rec.Ciphertext, testTable)
	require.NoError(t, err)
	return m
}

func TestCoprocessorOneHot(t *testing.T) {
	ctx := context.Background()
	sk := GenerateSecretKey(rand.Reader)
	store := NewMemStore()
	cop := NewCoprocessor(store, sk)

	choiceCt, _ := Encrypt(cop.PublicKey(), 2, rand.Reader)
	choice, err := cop.Ingest(ctx, choiceCt)
	require.NoError(t, err)

	one, err := cop.TrivialEncrypt(ctx, 1)
	require.NoError(t, err)
	zero, err := cop.TrivialEncrypt(ctx, 0)
	require.NoError(t, err)

	for k := uint64(0); k < 4; k++ {
		eq, err := cop.Eq(ctx, choice, k)
		require.NoError(t, err)
		bit, err := cop.Select(ctx, eq, one, zero)
		require.NoError(t, err)

		want := uint64(0)
		if k == 2 {
			want = 1
		}
		assert.Equal(t, want, decryptHandle(t, store, sk, eq), "eq %d", k)
		assert.Equal(t, want, decryptHandle(t, store, sk, bit), "select %d", k)
	}
}

func TestCoprocessorAddAndHandles(t *testing.T) {
	ctx := context.Background()
	sk := GenerateSecretKey(rand.Reader)
	store := NewMemStore()
	cop := NewCoprocessor(store, sk)

	a, err := cop.TrivialEncrypt(ctx, 5)
	require.NoError(t, err)
	b, err := cop.TrivialEncrypt(ctx, 5)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "handles must be unique per operation")

	sum, err := cop.Add(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), decryptHandle(t, store, sk, sum))

	_, err = cop.Add(ctx, a, Handle{})
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestCoprocessorPublicDecryptionACL(t *testing.T) {
	ctx := context.Background()
	cop := NewCoprocessor(NewMemStore(), GenerateSecretKey(rand.Reader))

	h, err := cop.TrivialEncrypt(ctx, 0)
	require.NoError(t, err)

	public, err := cop.IsPubliclyDecryptable(ctx, h)
	require.NoError(t, err)
	assert.False(t, public)

	require.NoError(t, cop.AllowPublicDecryption(ctx, h))
	require.NoError(t, cop.AllowPublicDecryption(ctx, h))

	public, err = cop.IsPubliclyDecryptable(ctx, h)
	require.NoError(t, err)
	assert.True(t, public)

	assert.ErrorIs(t, cop.AllowPublicDecryption(ctx, Handle{1}), ErrUnknownHandle)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.TypeSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.CreateSchema(conn))
	return conn
}

func TestSQLStoreRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	sk := GenerateSecretKey(rand.Reader)
	cop := NewCoprocessor(NewSQLStore(conn), sk)

	kept, err := cop.TrivialEncrypt(ctx, 3)
	require.NoError(t, err)

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	dropped, err := cop.WithStore(NewSQLStore(tx)).TrivialEncrypt(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	store := NewSQLStore(conn)
	assert.Equal(t, uint64(3), decryptHandle(t, store, sk, kept))

	_, err = store.Get(ctx, dropped)
	assert.ErrorIs(t, err, ErrUnknownHandle)

	require.NoError(t, store.SetVisibility(ctx, kept, Public))
	rec, err := store.Get(ctx, kept)
	require.NoError(t, err)
	assert.Equal(t, Public, rec.Visibility)

	assert.ErrorIs(t, store.SetVisibility(ctx, dropped, Public), ErrUnknownHandle)
}

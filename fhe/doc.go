// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package fhe provides the encrypted arithmetic the survey engine runs on.

# Ciphertexts

Values are encrypted with exponential ElGamal over ristretto255:

	ct, r := fhe.Encrypt(pk, 3, rand.Reader)  // (r*G, 3*G + r*Y)
	sum := fhe.Add(a, b)                      // Enc(a + b)

Small plaintexts are recovered with a baby-step giant-step table:

	table := fhe.NewDlogTable(1 << 20)
	m, err := sk.Decrypt(ct, table)

# Handles

The Coprocessor stores ciphertexts and hands out 32-byte handles. Callers
compose operations on handles only:

	eq, _ := cop.Eq(ctx, choice, 2)              // Enc(choice == 2)
	bit, _ := cop.Select(ctx, eq, one, zero)     // Enc(1) or Enc(0)
	next, _ := cop.Add(ctx, counter, bit)

AllowPublicDecryption flips a handle's ACL so the decryption service will
resolve it for anyone.

# Stores

SQLStore writes to the ciphertext table through a db.Querier, so a
coprocessor bound to a transaction with WithStore rolls back together with
the ledger state that references its handles. MemStore is an in-process
alternative.
*/
package fhe

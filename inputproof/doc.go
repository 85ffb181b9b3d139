// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package inputproof verifies encrypted answers before they reach the tally.

A sealed input is a tagged ciphertext plus a zero-knowledge proof:

	ciphertext = protocol (1 byte) || U (32 bytes) || V (32 bytes)
	proof      = n (1 byte) || (c_0 || z_0) || ... || (c_{n-1} || z_{n-1})

# Proof

The proof is a disjunctive Chaum-Pedersen proof (Cramer, Damgard and
Schoenmakers) that (U, V) = (rG, iG + rY) for some i in [0, n). Each branch i
carries a challenge share c_i and response z_i; the verifier recomputes

	a_i = z_i*G - c_i*U
	b_i = z_i*Y - c_i*(V - iG)

and accepts when the shares sum to the Fiat-Shamir challenge.

# Binding

The challenge hashes the protocol id, the instance address, the submitter
address, the public key, the ciphertext, n and every (a_i, b_i). A proof
replayed by another participant, on another deployment, or against a
question with a different option count fails.

# Errors

A protocol tag other than the verifier's yields
ErrUnsupportedEncryptionProtocol. Everything else, including malformed
encodings, yields ErrProofVerificationFailed.
*/
package inputproof

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth identifies callers by Ethereum-style signatures.

# Signed Requests

State-changing requests carry a 65 byte secp256k1 signature in the
X-Signature header. The signed message is the request line and body:

	METHOD " " PATH "\n" BODY

hashed with keccak256 and wrapped in the personal-sign prefix, so any wallet
that supports personal_sign over a 32 byte hash can produce it:

	sig, err := auth.SignRequest(key, "POST", "/questions/0/answers", body)
	req.Header.Set(auth.SignatureHeader, sig)

The server recovers the signer address and treats it as the caller:

	caller, err := auth.RecoverCaller(r, body)

There are no accounts or sessions; the address is the identity. Proofs on
answers are bound to the same address, so a signed request cannot carry
someone else's sealed answer.

# Addresses

ParseAddress validates 0x-prefixed hex addresses taken from URLs.
*/
package auth

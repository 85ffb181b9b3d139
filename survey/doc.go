// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package survey implements the confidential survey engine.

# Questions

A Registry holds the fixed, ordered question list. Question ids are
zero-based ordinals; anything outside [0, Count()) is ErrOutOfRange. The
registry is built once at startup and never changes.

# Submitting an Answer

A participant seals an option index with inputproof.Seal and submits it:

	err := engine.SubmitAnswer(ctx, caller, questionID, sealed)

The engine checks the question id, verifies the proof against the caller
and this deployment's instance address, then runs one ledger unit that

 1. records the (participant, question) answer, failing with
    ErrAlreadyAnswered if it exists
 2. ingests the ciphertext into the coprocessor
 3. builds the encrypted one-hot vector Select(Eq(choice, k), 1, 0) for every
    option k and adds it into the stored counters
 4. emits AnswerSubmitted

The unit commits as a whole or not at all, so the answered flag and the
counters never disagree.

# Counters

Each question owns one encrypted counter per option, created as an
encryption of zero when the engine first starts. Counter k always holds the
number of answers choosing option k, and the counters of a question always
sum to the number of participants who answered it.

# Revealing Results

	handles, err := engine.RequestPublicResults(ctx, caller, questionID)

The first call marks the current counter handles publicly decryptable,
records the question as publicly requested and emits ResultsMadePublic. Later
calls return the stored handles unchanged. Every call emits
ResultsRequested. Decrypting the handles is the decryption service's job.
*/
package survey

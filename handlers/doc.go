// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Sealed Survey API.

# Handler Types

  - SurveyHandler: Questions, sealed answers, encrypted counts and reveals
  - DecryptionHandler: Asynchronous public decryption requests
  - EventsHandler: The engine's event log

	surveyHandler := handlers.NewSurveyHandler(engine)

# Survey

	GET  /survey                                  → GetSurvey (instance, protocol, public key)
	GET  /questions                               → ListQuestions
	GET  /questions/count                         → GetQuestionCount
	GET  /questions/{id}                          → GetQuestion
	GET  /questions/{id}/option-count             → GetOptionCount
	GET  /questions/{id}/answers/{participant}    → HasAnswered
	POST /questions/{id}/answers                  → SubmitAnswer
	GET  /questions/{id}/counts                   → GetEncryptedCounts
	POST /questions/{id}/reveal                   → RequestPublicResults
	GET  /questions/{id}/reveal                   → GetRevealState

SubmitAnswer and RequestPublicResults require the X-Signature header. The
signer of the request is the caller; see package auth.

# Errors

	404  question id outside the registry
	409  participant already answered the question
	422  input proof did not verify
	501  ciphertext uses an unsupported encryption protocol

# Decryption

	POST   /decryptions      → Submit (202 with Location)
	GET    /decryptions/{id} → Get (202 while pending, 200 once settled)
	DELETE /decryptions/{id} → Cancel

Only handles made public by a reveal resolve; anything else is rejected.
Submit answers 503 when the queue is full or the service has stopped. Settled
requests are forgotten after a retention window, after which Get answers 404.

# Events

	GET /events?after=N&limit=M → List
*/
package handlers

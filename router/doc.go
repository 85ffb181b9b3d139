// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Sealed Survey API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(engine, decryptionService, ledger)

# Endpoints

Health:

	GET /health

Survey (public):

	GET /survey                    - Instance address, protocol id, public key
	GET /questions                 - All questions
	GET /questions/count           - Number of questions
	GET /questions/{id}            - One question
	GET /questions/{id}/option-count

Answers:

	GET  /questions/{id}/answers/{participant} - Answered flag
	POST /questions/{id}/answers               - Submit sealed answer (signed)

Counts and reveal:

	GET  /questions/{id}/counts - Encrypted counter handles
	POST /questions/{id}/reveal - Make counts publicly decryptable (signed)
	GET  /questions/{id}/reveal - Reveal state

Decryption:

	POST   /decryptions      - Queue handles
	GET    /decryptions/{id} - Poll a request
	DELETE /decryptions/{id} - Cancel a pending request

Events:

	GET /events?after=N&limit=M

Every route except /health and / is wrapped in middleware.WithLogging.
*/
package router

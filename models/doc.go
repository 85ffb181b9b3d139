// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

Binary values travel as 0x-prefixed hex. Handles are 32 byte hashes and
addresses are 20 byte Ethereum-style addresses.

# Request Types

Types for parsing incoming JSON:

  - SubmitAnswerRequest: ciphertext, proof
  - SubmitDecryptionRequest: handles

# Response Types

Types for JSON responses:

  - SurveyInfo: instance_address, protocol_id, public_key, question_count
  - Question: id, prompt, options, option_count
  - QuestionCountResponse: count
  - OptionCountResponse: question_id, option_count
  - AnsweredResponse: question_id, participant, answered
  - SubmitAnswerResponse: question_id, participant, message
  - EncryptedCountsResponse: question_id, handles
  - RevealResponse: question_id, status, requested_by, requested_at, handles
  - DecryptionResponse: id, status, handles, values, reason
  - EventsResponse: events, next
  - ErrorResponse: error, message

# Domain Types

  - Event: one committed notification (AnswerSubmitted, ResultsRequested,
    ResultsMadePublic)

# Constants

Reveal status: private, publicly_requested

Decryption status: pending, resolved, rejected, failed, cancelled
*/
package models

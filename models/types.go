// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Request types

// Ciphertext is protocol id || U || V and Proof is the range proof, both
// 0x-prefixed hex.
type SubmitAnswerRequest struct {
	Ciphertext hexutil.Bytes `json:"ciphertext"`
	Proof      hexutil.Bytes `json:"proof"`
}

type SubmitDecryptionRequest struct {
	Handles []common.Hash `json:"handles"`
}

// Response types

type SurveyInfo struct {
	InstanceAddress common.Address `json:"instance_address"`
	ProtocolID      uint8          `json:"protocol_id"`
	PublicKey       hexutil.Bytes  `json:"public_key"`
	QuestionCount   int            `json:"question_count"`
	DeployedAt      time.Time      `json:"deployed_at"`
}

type Question struct {
	ID          int      `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	OptionCount int      `json:"option_count"`
}

type QuestionCountResponse struct {
	Count int `json:"count"`
}

type OptionCountResponse struct {
	QuestionID  int `json:"question_id"`
	OptionCount int `json:"option_count"`
}

type AnsweredResponse struct {
	QuestionID  int            `json:"question_id"`
	Participant common.Address `json:"participant"`
	Answered    bool           `json:"answered"`
}

type SubmitAnswerResponse struct {
	QuestionID  int            `json:"question_id"`
	Participant common.Address `json:"participant"`
	Message     string         `json:"message"`
}

// Handles[k] refers to the encrypted count of option k.
type EncryptedCountsResponse struct {
	QuestionID int           `json:"question_id"`
	Handles    []common.Hash `json:"handles"`
}

type RevealResponse struct {
	QuestionID  int             `json:"question_id"`
	Status      string          `json:"status"`
	RequestedBy *common.Address `json:"requested_by,omitempty"`
	RequestedAt *time.Time      `json:"requested_at,omitempty"`
	Handles     []common.Hash   `json:"handles"`
}

type DecryptionResponse struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Handles     []common.Hash `json:"handles"`
	Values      []uint64      `json:"values,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Domain types

type Event struct {
	Seq        int64           `json:"seq"`
	Kind       string          `json:"kind"`
	QuestionID int             `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

type EventsResponse struct {
	Events []Event `json:"events"`
	Next   int64   `json:"next"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

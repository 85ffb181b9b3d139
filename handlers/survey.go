// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/danielhkuo/sealed-survey/auth"
	"github.com/danielhkuo/sealed-survey/fhe"
	"github.com/danielhkuo/sealed-survey/inputproof"
	"github.com/danielhkuo/sealed-survey/middleware"
	"github.com/danielhkuo/sealed-survey/models"
	"github.com/danielhkuo/sealed-survey/survey"
)

type SurveyHandler struct {
	engine *survey.Engine
}

func NewSurveyHandler(engine *survey.Engine) *SurveyHandler {
	return &SurveyHandler{engine: engine}
}

// parseQuestionID reads the {id} path value. Only syntax is checked here;
// the engine reports ids outside the registry.
func parseQuestionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question id must be an integer")
		return 0, false
	}
	return id, true
}

// writeSurveyError maps engine errors to HTTP status codes
func writeSurveyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, survey.ErrOutOfRange):
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
	case errors.Is(err, survey.ErrUnsupportedEncryptionProtocol):
		middleware.ErrorResponse(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, survey.ErrProofVerificationFailed):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, survey.ErrAlreadyAnswered):
		middleware.ErrorResponse(w, http.StatusConflict, "Question already answered")
	default:
		slog.Error("survey operation failed", "request_id", middleware.RequestID(r.Context()), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

// readSigned reads the body and recovers the signer of the request.
func readSigned(w http.ResponseWriter, r *http.Request) ([]byte, common.Address, bool) {
	body, err := middleware.ReadBody(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return nil, common.Address{}, false
	}

	caller, err := auth.RecoverCaller(r, body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
		return nil, common.Address{}, false
	}
	return body, caller, true
}

// GetSurvey handles GET /survey
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	dep := h.engine.Deployment()
	pk, err := dep.PublicKey.MarshalBinary()
	if err != nil {
		slog.Error("failed to encode public key", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SurveyInfo{
		InstanceAddress: dep.Instance,
		ProtocolID:      h.engine.ConfidentialProtocolID(),
		PublicKey:       pk,
		QuestionCount:   h.engine.GetQuestionCount(),
		DeployedAt:      dep.CreatedAt,
	})
}

// ListQuestions handles GET /questions
func (h *SurveyHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions := h.engine.Questions()
	resp := make([]models.Question, len(questions))
	for i, q := range questions {
		resp[i] = models.Question{ID: i, Prompt: q.Prompt, Options: q.Options, OptionCount: len(q.Options)}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetQuestionCount handles GET /questions/count
func (h *SurveyHandler) GetQuestionCount(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.QuestionCountResponse{Count: h.engine.GetQuestionCount()})
}

// GetQuestion handles GET /questions/{id}
func (h *SurveyHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	q, err := h.engine.GetQuestion(id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Question{
		ID:          id,
		Prompt:      q.Prompt,
		Options:     q.Options,
		OptionCount: len(q.Options),
	})
}

// GetOptionCount handles GET /questions/{id}/option-count
func (h *SurveyHandler) GetOptionCount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	n, err := h.engine.GetOptionCount(id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.OptionCountResponse{QuestionID: id, OptionCount: n})
}

// HasAnswered handles GET /questions/{id}/answers/{participant}
func (h *SurveyHandler) HasAnswered(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	participant, err := auth.ParseAddress(r.PathValue("participant"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "participant must be a 0x-prefixed address")
		return
	}

	answered, err := h.engine.HasAnswered(r.Context(), participant, id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AnsweredResponse{
		QuestionID:  id,
		Participant: participant,
		Answered:    answered,
	})
}

// SubmitAnswer handles POST /questions/{id}/answers
// Requires a signed request; the signer is the participant.
func (h *SurveyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	body, caller, ok := readSigned(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Ciphertext) == 0 || len(req.Proof) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ciphertext and proof are required")
		return
	}

	err := h.engine.SubmitAnswer(r.Context(), caller, id, inputproof.Sealed{
		Ciphertext: req.Ciphertext,
		Proof:      req.Proof,
	})
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitAnswerResponse{
		QuestionID:  id,
		Participant: caller,
		Message:     "Answer recorded",
	})
}

// GetEncryptedCounts handles GET /questions/{id}/counts
func (h *SurveyHandler) GetEncryptedCounts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	handles, err := h.engine.GetEncryptedCounts(r.Context(), id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EncryptedCountsResponse{QuestionID: id, Handles: handles})
}

// RequestPublicResults handles POST /questions/{id}/reveal
// Requires a signed request. Repeating it returns the same handles.
func (h *SurveyHandler) RequestPublicResults(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	_, caller, ok := readSigned(w, r)
	if !ok {
		return
	}

	state, err := h.engine.RequestReveal(r.Context(), caller, id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, toRevealResponse(id, state))
}

// GetRevealState handles GET /questions/{id}/reveal
func (h *SurveyHandler) GetRevealState(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	state, err := h.engine.RevealState(r.Context(), id)
	if err != nil {
		writeSurveyError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, toRevealResponse(id, state))
}

func toRevealResponse(id int, state survey.RevealState) models.RevealResponse {
	resp := models.RevealResponse{
		QuestionID: id,
		Status:     string(state.Status),
		Handles:    state.Handles,
	}
	if resp.Handles == nil {
		resp.Handles = []fhe.Handle{}
	}
	if state.Status == survey.StatusPubliclyRequested {
		resp.RequestedBy = &state.RequestedBy
		resp.RequestedAt = &state.RequestedAt
	}
	return resp
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/sealed-survey/decryption"
	"github.com/danielhkuo/sealed-survey/middleware"
	"github.com/danielhkuo/sealed-survey/models"
)

type DecryptionHandler struct {
	svc *decryption.Service
}

func NewDecryptionHandler(svc *decryption.Service) *DecryptionHandler {
	return &DecryptionHandler{svc: svc}
}

func toDecryptionResponse(res decryption.Result) models.DecryptionResponse {
	resp := models.DecryptionResponse{
		ID:          res.ID.String(),
		Status:      string(res.Status),
		Handles:     res.Handles,
		Values:      res.Values,
		Reason:      res.Reason,
		SubmittedAt: res.SubmittedAt,
	}
	if !res.CompletedAt.IsZero() {
		resp.CompletedAt = &res.CompletedAt
	}
	return resp
}

// pollStatus is 202 while the request is pending and 200 once it settled.
func pollStatus(res decryption.Result) int {
	if res.Status == decryption.StatusPending {
		return http.StatusAccepted
	}
	return http.StatusOK
}

func parseRequestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "request id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Submit handles POST /decryptions
func (h *DecryptionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitDecryptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id, err := h.svc.Submit(req.Handles)
	switch {
	case errors.Is(err, decryption.ErrEmptyRequest), errors.Is(err, decryption.ErrTooManyHandles):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, decryption.ErrQueueFull), errors.Is(err, decryption.ErrServiceStopped):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		slog.Error("failed to submit decryption", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}

	res, err := h.svc.Result(id)
	if err != nil {
		slog.Error("failed to read decryption", "request_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.Header().Set("Location", "/decryptions/"+id.String())
	middleware.JSONResponse(w, http.StatusAccepted, toDecryptionResponse(res))
}

// Get handles GET /decryptions/{id}
func (h *DecryptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRequestID(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Result(id)
	if errors.Is(err, decryption.ErrUnknownRequest) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Decryption request not found")
		return
	}
	if err != nil {
		slog.Error("failed to read decryption", "request_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}

	middleware.JSONResponse(w, pollStatus(res), toDecryptionResponse(res))
}

// Cancel handles DELETE /decryptions/{id}
func (h *DecryptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRequestID(w, r)
	if !ok {
		return
	}

	err := h.svc.Cancel(id)
	switch {
	case errors.Is(err, decryption.ErrUnknownRequest):
		middleware.ErrorResponse(w, http.StatusNotFound, "Decryption request not found")
		return
	case errors.Is(err, decryption.ErrNotPending):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to cancel decryption", "request_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}

	res, _ := h.svc.Result(id)
	middleware.JSONResponse(w, http.StatusOK, toDecryptionResponse(res))
}

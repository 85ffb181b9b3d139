// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/sealed-survey/ledger"
	"github.com/danielhkuo/sealed-survey/middleware"
	"github.com/danielhkuo/sealed-survey/models"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

type EventsHandler struct {
	ledger *ledger.Ledger
}

func NewEventsHandler(l *ledger.Ledger) *EventsHandler {
	return &EventsHandler{ledger: l}
}

// List handles GET /events?after=N&limit=M
// Clients resume from the returned next cursor.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	var after int64
	if s := r.URL.Query().Get("after"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = v
	}

	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxEventLimit {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = v
	}

	events, err := h.ledger.Events(r.Context(), after, limit)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.EventsResponse{Events: make([]models.Event, len(events)), Next: after}
	for i, ev := range events {
		resp.Events[i] = models.Event{
			Seq:        ev.Seq,
			Kind:       ev.Kind,
			QuestionID: ev.QuestionID,
			Payload:    ev.Payload,
			CreatedAt:  ev.CreatedAt,
		}
		resp.Next = ev.Seq
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

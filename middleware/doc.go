// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /survey", middleware.WithLogging(handler))

Each request gets a UUID, returned in the X-Request-ID header and available
to handlers through RequestID(r.Context()). Logs request start (request_id,
method, path, remote) and completion (status, size, duration_ms).

# Logger

NewLogger picks the slog handler for the process:

	slog.SetDefault(middleware.NewLogger(os.Stderr, cfg.LogFormat))

Text when stderr is a terminal, JSON otherwise, unless a format is given.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, DELETE, OPTIONS with headers Content-Type and
X-Signature.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.SubmitDecryptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

Signed requests read the raw body first with ReadBody, check the signature
over it, then decode it.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request logs.
*/
package middleware

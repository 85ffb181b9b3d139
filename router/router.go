// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/sealed-survey/decryption"
	"github.com/danielhkuo/sealed-survey/handlers"
	"github.com/danielhkuo/sealed-survey/ledger"
	"github.com/danielhkuo/sealed-survey/middleware"
	"github.com/danielhkuo/sealed-survey/survey"
)

func NewRouter(engine *survey.Engine, svc *decryption.Service, l *ledger.Ledger) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	surveyHandler := handlers.NewSurveyHandler(engine)
	decryptionHandler := handlers.NewDecryptionHandler(svc)
	eventsHandler := handlers.NewEventsHandler(l)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Survey metadata (public)
	mux.HandleFunc("GET /survey", middleware.WithLogging(surveyHandler.GetSurvey))
	mux.HandleFunc("GET /questions", middleware.WithLogging(surveyHandler.ListQuestions))
	mux.HandleFunc("GET /questions/count", middleware.WithLogging(surveyHandler.GetQuestionCount))
	mux.HandleFunc("GET /questions/{id}", middleware.WithLogging(surveyHandler.GetQuestion))
	mux.HandleFunc("GET /questions/{id}/option-count", middleware.WithLogging(surveyHandler.GetOptionCount))

	// Answers (submission requires X-Signature)
	mux.HandleFunc("GET /questions/{id}/answers/{participant}", middleware.WithLogging(surveyHandler.HasAnswered))
	mux.HandleFunc("POST /questions/{id}/answers", middleware.WithLogging(surveyHandler.SubmitAnswer))

	// Encrypted counts and reveal (reveal requires X-Signature)
	mux.HandleFunc("GET /questions/{id}/counts", middleware.WithLogging(surveyHandler.GetEncryptedCounts))
	mux.HandleFunc("POST /questions/{id}/reveal", middleware.WithLogging(surveyHandler.RequestPublicResults))
	mux.HandleFunc("GET /questions/{id}/reveal", middleware.WithLogging(surveyHandler.GetRevealState))

	// Decryption requests
	mux.HandleFunc("POST /decryptions", middleware.WithLogging(decryptionHandler.Submit))
	mux.HandleFunc("GET /decryptions/{id}", middleware.WithLogging(decryptionHandler.Get))
	mux.HandleFunc("DELETE /decryptions/{id}", middleware.WithLogging(decryptionHandler.Cancel))

	// Event log
	mux.HandleFunc("GET /events", middleware.WithLogging(eventsHandler.List))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sealed-survey API v1"))
	})

	return mux
}

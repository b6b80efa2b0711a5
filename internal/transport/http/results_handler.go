package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"github.com/gorilla/mux"
)

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
)

type errorResponse struct {
	Error string `json:"error"`
}

// ResultsHandler serves the results view over plain HTTP.
type ResultsHandler struct {
	service *app.QuizService
}

func NewResultsHandler(service *app.QuizService) *ResultsHandler {
	return &ResultsHandler{service: service}
}

// GetResults returns the scored summary of a finished session. The snapshot is
// consumed, so a second request answers 404.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	summary, err := h.service.Results(r.Context(), sessionID)
	switch {
	case errors.Is(err, domain.ErrMissingSnapshot):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case err != nil:
		log.Printf("results for session %s: %v", sessionID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "results unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

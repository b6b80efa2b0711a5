package http

import (
	"net/http"

	"trivia-quiz-service/internal/app"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires the quiz endpoints. An empty allowedOrigins list allows any origin.
func NewRouter(service *app.QuizService, allowedOrigins []string) http.Handler {
	corsOpts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}
	if len(allowedOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	corsMiddleware := cors.New(corsOpts)

	wsHandler := NewWSHandler(service, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || corsMiddleware.OriginAllowed(r)
	})
	resultsHandler := NewResultsHandler(service)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ws", wsHandler.ServeWS)
	router.HandleFunc("/api/results/{sessionId}", resultsHandler.GetResults).Methods(http.MethodGet, http.MethodOptions)

	return corsMiddleware.Handler(router)
}

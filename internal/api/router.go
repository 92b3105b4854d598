package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// Public routes
	r.Post("/signup", apiHandler.SignupHandler)
	r.Post("/login", apiHandler.LoginHandler)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.JWTAuthMiddleware)

		r.Post("/chat", apiHandler.ChatHandler)
		r.Get("/sessions", apiHandler.ListSessionsHandler)
		r.Get("/get_history/{sessionID}", apiHandler.GetHistoryHandler)
		r.Delete("/delete_chat/{sessionID}", apiHandler.DeleteChatHandler)
		r.Get("/remaining_messages", apiHandler.RemainingMessagesHandler)
	})

	return r
}

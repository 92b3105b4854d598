package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/langchat/langchat/internal/auth"
	"github.com/langchat/langchat/internal/core"
)

type APIHandler struct {
	chatService *core.ChatService
}

func NewAPIHandler(cs *core.ChatService) *APIHandler {
	return &APIHandler{chatService: cs}
}

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyUsername
)

func userIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKeyUserID).(int64)
	return id
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writePipelineError(w, fmt.Errorf("%w: authorization header is required", core.ErrUnauthorized))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		username, err := auth.ValidateJWT(tokenString)
		if err != nil {
			writePipelineError(w, fmt.Errorf("%w: invalid token", core.ErrUnauthorized))
			return
		}

		user, err := h.chatService.GetUserByUsername(username)
		if err != nil {
			log.Printf("Error resolving user %s: %v", username, err)
			writeJSONError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}
		if user == nil {
			writePipelineError(w, fmt.Errorf("%w: user not found", core.ErrUnauthorized))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, user.ID)
		ctx = context.WithValue(ctx, ctxKeyUsername, user.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Username, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := h.chatService.CreateUser(req.Username, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Username, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.chatService.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Username, err)
		writeJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateJWT(user.Username)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Username, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writePipelineError maps the core error taxonomy to HTTP statuses.
func writePipelineError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), clientMessage(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrRetrieval), errors.Is(err, core.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage keeps provider and storage internals out of responses.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrUnauthorized):
		return err.Error()
	case errors.Is(err, core.ErrQuotaExceeded):
		return core.ErrQuotaExceeded.Error()
	case errors.Is(err, core.ErrNotFound):
		return core.ErrNotFound.Error()
	case errors.Is(err, core.ErrRetrieval):
		return core.ErrRetrieval.Error()
	case errors.Is(err, core.ErrGeneration):
		return core.ErrGeneration.Error()
	default:
		return "internal error"
	}
}

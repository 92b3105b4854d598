package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/langchat/langchat/internal/core"
)

type ChatRequest struct {
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
	Stream    bool   `json:"stream"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Remaining int    `json:"remaining"`
}

// ChatHandler answers a question. stream=false returns a single JSON
// response; stream=true re-emits generation fragments as Server-Sent Events:
// zero or more {"token": ...} frames followed by {"done": true,
// "session_id": ...}. Errors raised before the stream opens are ordinary
// HTTP-status responses; once frames have been sent they become in-stream
// {"error": ...} frames, since the status line is already gone.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if !req.Stream {
		result, err := h.chatService.Answer(r.Context(), userID, req.SessionID, req.UserInput)
		if err != nil {
			logPipelineError(userID, err)
			writePipelineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:  result.Response,
			SessionID: result.SessionID,
			Remaining: result.Remaining,
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	startSSE := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
		w.WriteHeader(http.StatusOK)
		started = true
	}

	sessionID, err := h.chatService.AnswerStream(r.Context(), userID, req.SessionID, req.UserInput, func(token string) error {
		if !started {
			startSSE()
		}
		writeSSEFrame(w, flusher, map[string]string{"token": token})
		return nil
	})
	if err != nil {
		logPipelineError(userID, err)
		if !started {
			writePipelineError(w, err)
			return
		}
		if r.Context().Err() != nil {
			// Client is gone; nothing left to tell it.
			return
		}
		writeSSEFrame(w, flusher, map[string]string{"error": clientMessage(err)})
		return
	}

	if !started {
		startSSE()
	}
	writeSSEFrame(w, flusher, map[string]any{"done": true, "session_id": sessionID})
}

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal SSE frame: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func logPipelineError(userID int64, err error) {
	// Client-fixable failures are expected traffic; don't log them as errors.
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrQuotaExceeded) {
		return
	}
	log.Printf("Pipeline error for user %d: %v", userID, err)
}

type SessionResponse struct {
	SessionID  string `json:"session_id"`
	Title      string `json:"title"`
	LastActive string `json:"last_active"`
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	sessions, err := h.chatService.Sessions(userID)
	if err != nil {
		log.Printf("Error listing sessions for user %d: %v", userID, err)
		writePipelineError(w, err)
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, SessionResponse{
			SessionID:  sess.SessionID,
			Title:      sess.Title,
			LastActive: sess.LastActive.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatService.History(userID, sessionID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Printf("Error getting history for user %d, session %s: %v", userID, sessionID, err)
		}
		writePipelineError(w, err)
		return
	}

	resp := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, HistoryEntry{Role: msg.Role, Content: msg.Content})
	}
	writeJSON(w, http.StatusOK, resp)
}

type DeleteChatResponse struct {
	Success         bool  `json:"success"`
	DeletedMessages int64 `json:"deleted_messages"`
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := h.chatService.DeleteSession(userID, sessionID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Printf("Error deleting session %s for user %d: %v", sessionID, userID, err)
		}
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteChatResponse{Success: true, DeletedMessages: deleted})
}

func (h *APIHandler) RemainingMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	quota, err := h.chatService.Quota(userID)
	if err != nil {
		log.Printf("Error reading quota for user %d: %v", userID, err)
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quota)
}

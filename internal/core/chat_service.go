package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/langchat/langchat/internal/llm"
	"github.com/langchat/langchat/internal/store"
)

// MaxQueryLength is the maximum accepted query length in characters.
const MaxQueryLength = 400

// ChatService orchestrates the retrieval-augmented answer pipeline and the
// session/quota bookkeeping around it.
type ChatService struct {
	dbStore    *store.SQLiteStore
	ragService *RAGService
	provider   llm.Provider
	dailyLimit int
}

func NewChatService(db *store.SQLiteStore, rag *RAGService, provider llm.Provider, dailyLimit int) *ChatService {
	return &ChatService{
		dbStore:    db,
		ragService: rag,
		provider:   provider,
		dailyLimit: dailyLimit,
	}
}

// QuotaStatus reports the user's position against the daily ceiling.
type QuotaStatus struct {
	MessagesSent int `json:"messages_sent"`
	Remaining    int `json:"remaining"`
	DailyLimit   int `json:"daily_limit"`
}

// AnswerResult is the buffered-mode outcome of the pipeline.
type AnswerResult struct {
	SessionID string
	Response  string
	Remaining int
}

// answerPayload is the structured-output shape the buffered path requests
// from the generation provider.
type answerPayload struct {
	Response string `json:"response"`
}

// User passthroughs for the auth collaborator.

func (s *ChatService) GetUserByUsername(username string) (*store.User, error) {
	return s.dbStore.GetUserByUsername(username)
}

func (s *ChatService) CreateUser(username, passwordHash string) (*store.User, error) {
	return s.dbStore.CreateUser(username, passwordHash)
}

// Answer runs the buffered pipeline: validate, record the user turn under
// quota, retrieve context, generate, persist the assistant turn best-effort.
func (s *ChatService) Answer(ctx context.Context, userID int64, sessionID, query string) (*AnswerResult, error) {
	sessionID, prompt, err := s.prepare(ctx, userID, sessionID, query)
	if err != nil {
		return nil, err
	}

	var payload answerPayload
	if err := s.provider.GenerateStructured(ctx, prompt, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if payload.Response == "" {
		return nil, fmt.Errorf("%w: provider returned an empty answer", ErrGeneration)
	}

	s.persistAssistantTurn(userID, sessionID, payload.Response)

	quota, err := s.Quota(userID)
	if err != nil {
		// The answer exists; a failed quota read should not destroy it.
		log.Printf("Failed to read quota after answering for user %d: %v", userID, err)
		quota = &QuotaStatus{DailyLimit: s.dailyLimit}
	}

	return &AnswerResult{
		SessionID: sessionID,
		Response:  payload.Response,
		Remaining: quota.Remaining,
	}, nil
}

// AnswerStream runs the streaming pipeline, forwarding each generated
// fragment to onToken as it arrives. The assistant turn is persisted
// best-effort only after the stream completes; a mid-stream provider failure
// or client disconnect discards the partial answer.
func (s *ChatService) AnswerStream(ctx context.Context, userID int64, sessionID, query string, onToken func(token string) error) (string, error) {
	sessionID, prompt, err := s.prepare(ctx, userID, sessionID, query)
	if err != nil {
		return sessionID, err
	}

	var answer strings.Builder
	err = s.provider.GenerateStream(ctx, prompt, func(fragment string) error {
		answer.WriteString(fragment)
		return onToken(fragment)
	})
	if err != nil {
		return sessionID, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	s.persistAssistantTurn(userID, sessionID, answer.String())
	return sessionID, nil
}

// prepare runs the shared front half of both modes: validation, session
// resolution, the quota-guarded user-turn write, retrieval, and prompt
// assembly. The user-turn write is durable before retrieval begins so a
// crash mid-pipeline still leaves a record of what was asked.
func (s *ChatService) prepare(ctx context.Context, userID int64, sessionID, query string) (string, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return sessionID, "", fmt.Errorf("%w: query must not be empty", ErrValidation)
	}
	if len([]rune(query)) > MaxQueryLength {
		return sessionID, "", fmt.Errorf("%w: query exceeds %d characters", ErrValidation, MaxQueryLength)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	_, err := s.dbStore.AppendUserMessageWithinQuota(userID, sessionID, query, startOfToday(), s.dailyLimit)
	if err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return sessionID, "", fmt.Errorf("%w: limit of %d messages per day", ErrQuotaExceeded, s.dailyLimit)
		}
		return sessionID, "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	docs, err := s.ragService.Retrieve(ctx, query)
	if err != nil {
		return sessionID, "", fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	return sessionID, BuildPrompt(DefaultInstruction, query, docs), nil
}

// persistAssistantTurn records the assistant's answer after the client has
// already received it. Failure is logged and swallowed: the history becomes
// incomplete but the delivered answer is not retroactively broken.
func (s *ChatService) persistAssistantTurn(userID int64, sessionID, content string) {
	if _, err := s.dbStore.AppendMessage(userID, sessionID, store.RoleAssistant, content); err != nil {
		log.Printf("Failed to persist assistant message for session %s: %v", sessionID, err)
	}
}

// Quota derives the user's spend against the daily ceiling from the history
// store. The day boundary is the server's local midnight.
func (s *ChatService) Quota(userID int64) (*QuotaStatus, error) {
	sent, err := s.dbStore.CountUserMessagesSince(userID, startOfToday())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	remaining := s.dailyLimit - sent
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		MessagesSent: sent,
		Remaining:    remaining,
		DailyLimit:   s.dailyLimit,
	}, nil
}

// Sessions lists the user's sessions, most recently active first. A user
// with no messages gets an empty list, not an error.
func (s *ChatService) Sessions(userID int64) ([]store.SessionSummary, error) {
	sessions, err := s.dbStore.ListSessions(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return sessions, nil
}

// History returns a session's messages in conversation order. An empty
// session is reported as ErrNotFound at this level.
func (s *ChatService) History(userID int64, sessionID string) ([]store.Message, error) {
	messages, err := s.dbStore.GetSessionMessages(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: session %s has no messages", ErrNotFound, sessionID)
	}
	return messages, nil
}

// DeleteSession removes every message in the session. Deleting a session
// that does not exist is ErrNotFound.
func (s *ChatService) DeleteSession(userID int64, sessionID string) (int64, error) {
	deleted, err := s.dbStore.DeleteSession(userID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return deleted, nil
}

// startOfToday is the server-local midnight. No timezone is stored per user;
// a known limitation.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

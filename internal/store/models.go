package store

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxTitleLen caps derived session titles at 60 characters.
const maxTitleLen = 60

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary is a derived view over the messages table; sessions are not
// stored as rows of their own.
type SessionSummary struct {
	SessionID  string    `json:"session_id"`
	Title      string    `json:"title"`
	LastActive time.Time `json:"last_active"`
}

// DeriveTitle builds a session title from the session's earliest user
// message: the first 60 characters of its content. An empty content (no user
// message in the session) falls back to a placeholder label.
func DeriveTitle(content string) string {
	if content == "" {
		return "New chat"
	}
	runes := []rune(content)
	if len(runes) <= maxTitleLen {
		return content
	}
	return string(runes[:maxTitleLen])
}

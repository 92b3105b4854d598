package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrQuotaExceeded is returned by AppendUserMessageWithinQuota when the user
// has already sent their daily allowance of messages.
var ErrQuotaExceeded = errors.New("daily message quota exceeded")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (user_id, session_id);
    CREATE INDEX IF NOT EXISTS idx_messages_quota ON messages (user_id, role, timestamp);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(username, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (username, password_hash) VALUES (?, ?)", username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Message methods

// AppendMessage durably appends one turn to a session. Messages are immutable
// once written; there is no update path.
func (s *SQLiteStore) AppendMessage(userID int64, sessionID, role, content string) (*Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	_, err := s.db.Exec(
		"INSERT INTO messages (id, user_id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.UserID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &msg, nil
}

// AppendUserMessageWithinQuota counts the user's user-role messages since the
// given instant and appends the new turn in the same transaction. SQLite's
// single-writer lock serializes the count-then-insert sequence, so two
// concurrent requests cannot both slip under the ceiling.
//
// Returns ErrQuotaExceeded (and appends nothing) once the ceiling is reached.
func (s *SQLiteStore) AppendUserMessageWithinQuota(userID int64, sessionID, content string, since time.Time, limit int) (*Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin quota transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE user_id = ? AND role = ? AND timestamp >= ?",
		userID, RoleUser, since,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages for quota: %w", err)
	}
	if count >= limit {
		return nil, ErrQuotaExceeded
	}

	msg := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	_, err = tx.Exec(
		"INSERT INTO messages (id, user_id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.UserID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quota transaction: %w", err)
	}
	return &msg, nil
}

// CountUserMessagesSince reports how many user-role turns the user has
// written at or after the given instant.
func (s *SQLiteStore) CountUserMessagesSince(userID int64, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE user_id = ? AND role = ? AND timestamp >= ?",
		userID, RoleUser, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// GetSessionMessages returns a session's messages in conversation order:
// ascending timestamp, insertion order breaking ties.
func (s *SQLiteStore) GetSessionMessages(userID int64, sessionID string) ([]Message, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, session_id, role, content, timestamp FROM messages WHERE user_id = ? AND session_id = ? ORDER BY timestamp ASC, rowid ASC",
		userID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListSessions derives the user's sessions from their messages: one row per
// session identifier, titled by the earliest user turn, ordered by most
// recent activity.
func (s *SQLiteStore) ListSessions(userID int64) ([]SessionSummary, error) {
	query := `
        SELECT m.session_id,
               COALESCE((
                   SELECT m2.content FROM messages m2
                   WHERE m2.user_id = m.user_id AND m2.session_id = m.session_id AND m2.role = 'user'
                   ORDER BY m2.timestamp ASC, m2.rowid ASC LIMIT 1
               ), '') AS first_user_content,
               MAX(m.timestamp) AS last_active
        FROM messages m
        WHERE m.user_id = ?
        GROUP BY m.session_id
        ORDER BY last_active DESC
    `
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sess SessionSummary
		var firstUserContent string
		var lastActive string
		// MAX(timestamp) is an expression without a declared column type, so
		// the driver returns it as text rather than time.Time.
		if err := rows.Scan(&sess.SessionID, &firstUserContent, &lastActive); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sess.LastActive, err = parseTimestamp(lastActive)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session timestamp: %w", err)
		}
		sess.Title = DeriveTitle(firstUserContent)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// sqliteTimestampFormats are the layouts go-sqlite3 writes and accepts for
// DATETIME values, most specific first.
var sqliteTimestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, format := range sqliteTimestampFormats {
		if t, err := time.ParseInLocation(format, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// DeleteSession removes every message in the session and reports how many
// were deleted. Zero means the session did not exist for this user.
func (s *SQLiteStore) DeleteSession(userID int64, sessionID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM messages WHERE user_id = ? AND session_id = ?", userID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session messages: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return deleted, nil
}

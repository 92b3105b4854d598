package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *SQLiteStore, username string) *User {
	t.Helper()
	user, err := s.CreateUser(username, "hash")
	require.NoError(t, err)
	return user
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)

	created := newTestUser(t, s, "alice")
	assert.Equal(t, "alice", created.Username)

	found, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := s.GetUserByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionMessageOrder(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		_, err := s.AppendMessage(user.ID, "sess-1", RoleUser, c)
		require.NoError(t, err)
	}

	messages, err := s.GetSessionMessages(user.ID, "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		assert.Equal(t, contents[i], msg.Content)
	}
}

func TestSessionIsolationBetweenUsers(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	_, err := s.AppendMessage(alice.ID, "shared-id", RoleUser, "alice's message")
	require.NoError(t, err)

	messages, err := s.GetSessionMessages(bob.ID, "shared-id")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	t.Run("empty state returns empty list", func(t *testing.T) {
		sessions, err := s.ListSessions(user.ID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	_, err := s.AppendMessage(user.ID, "older", RoleUser, "How do I configure retries in LangChain?")
	require.NoError(t, err)
	_, err = s.AppendMessage(user.ID, "older", RoleAssistant, "Like this.")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond) // distinct last_active timestamps

	_, err = s.AppendMessage(user.ID, "newer", RoleUser, "What is a retriever?")
	require.NoError(t, err)

	sessions, err := s.ListSessions(user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Most recently active first.
	assert.Equal(t, "newer", sessions[0].SessionID)
	assert.Equal(t, "older", sessions[1].SessionID)
	assert.Equal(t, "How do I configure retries in LangChain?", sessions[1].Title)
	assert.False(t, sessions[0].LastActive.Before(sessions[1].LastActive))
	assert.WithinDuration(t, time.Now(), sessions[0].LastActive, time.Minute)
}

func TestListSessionsTitleFallback(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	// A session containing only an assistant turn has no derivable title.
	_, err := s.AppendMessage(user.ID, "sess-a", RoleAssistant, "orphaned answer")
	require.NoError(t, err)

	sessions, err := s.ListSessions(user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "New chat", sessions[0].Title)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "short content unchanged",
			content: "How do I configure retries in LangChain?",
			want:    "How do I configure retries in LangChain?",
		},
		{
			name:    "long content truncated to 60 characters",
			content: strings.Repeat("a", 100),
			want:    strings.Repeat("a", 60),
		},
		{
			name:    "exactly 60 characters unchanged",
			content: strings.Repeat("b", 60),
			want:    strings.Repeat("b", 60),
		},
		{
			name:    "empty falls back to placeholder",
			content: "",
			want:    "New chat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	_, err := s.AppendMessage(user.ID, "sess-1", RoleUser, "hello")
	require.NoError(t, err)
	_, err = s.AppendMessage(user.ID, "sess-1", RoleAssistant, "hi")
	require.NoError(t, err)

	deleted, err := s.DeleteSession(user.ID, "sess-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	messages, err := s.GetSessionMessages(user.ID, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	deleted, err = s.DeleteSession(user.ID, "sess-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)
}

func TestAppendUserMessageWithinQuota(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")
	since := time.Now().Add(-time.Hour)
	limit := 4

	for i := 0; i < limit; i++ {
		_, err := s.AppendUserMessageWithinQuota(user.ID, "sess-1", "question", since, limit)
		require.NoError(t, err)
	}

	// The ceiling is reached: the next append must fail and write nothing.
	_, err := s.AppendUserMessageWithinQuota(user.ID, "sess-1", "one too many", since, limit)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	count, err := s.CountUserMessagesSince(user.ID, since)
	require.NoError(t, err)
	assert.Equal(t, limit, count)
}

func TestQuotaCountsOnlyUserRoleSince(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "alice")

	_, err := s.AppendMessage(user.ID, "sess-1", RoleUser, "question")
	require.NoError(t, err)
	_, err = s.AppendMessage(user.ID, "sess-1", RoleAssistant, "answer")
	require.NoError(t, err)

	count, err := s.CountUserMessagesSince(user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Messages before the window do not count.
	count, err = s.CountUserMessagesSince(user.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

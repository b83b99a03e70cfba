package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/askdocs/askdocs/internal/db"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a session's chat log.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists chat messages in an append-only log keyed by session.
type Store struct {
	db *db.DB
}

// NewStore creates a chat history store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Append adds a message to a session's log.
func (s *Store) Append(ctx context.Context, sessionID string, role Role, content string) (*Message, error) {
	msg := Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	return &msg, nil
}

// Recent returns the most recent limit messages for a session, reordered
// oldest-first so they can be fed directly into an LLM prompt.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}

	// rowid breaks ties when two messages land in the same timestamp second.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages WHERE session_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse newest-first into oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// titleMaxLen is the cap applied when deriving a title from the first user
// message.
const titleMaxLen = 50

// GetConversationByID retrieves a conversation by its ID
func GetConversationByID(ctx context.Context, db sqlscan.Querier, conversationID string) (*Conversation, error) {
	query := `SELECT id, title, mode, owner_id, created_at, updated_at FROM conversations WHERE id = ?`
	var conv Conversation
	err := sqlscan.Get(ctx, db, &conv, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &conv, nil
}

// CreateConversation creates a new conversation in the database
func CreateConversation(ctx context.Context, db Execer, conversation *Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.Title == "" {
		conversation.Title = DefaultConversationTitle
	}
	if !ValidMode(conversation.Mode) {
		return fmt.Errorf("invalid conversation mode: %q", conversation.Mode)
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now()
	}
	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = time.Now()
	}

	query := `INSERT INTO conversations (id, title, mode, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, conversation.ID, conversation.Title, conversation.Mode, conversation.OwnerID, conversation.CreatedAt, conversation.UpdatedAt)
	return err
}

// GetOrCreateConversation resumes the conversation when conversationID
// resolves to a record owned by userID, attaching its full message history.
// Any other case, including an id owned by someone else, creates a fresh
// conversation with a placeholder title and the given mode.
func GetOrCreateConversation(ctx context.Context, db ExecQuerier, userID, conversationID, mode string) (*Conversation, error) {
	if conversationID != "" {
		conv, err := GetConversationByID(ctx, db, conversationID)
		if err != nil {
			return nil, err
		}
		if conv != nil && conv.OwnerID == userID {
			messages, err := GetMessagesByConversationID(ctx, db, conv.ID)
			if err != nil {
				return nil, err
			}
			conv.Messages = messages
			return conv, nil
		}
	}

	conv := &Conversation{
		Mode:    mode,
		OwnerID: userID,
	}
	if err := CreateConversation(ctx, db, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// UpdateConversationTitle sets the conversation title. The "only after the
// first message" rule belongs to the caller; no idempotence check happens
// here.
func UpdateConversationTitle(ctx context.Context, db Execer, conversationID, title string) error {
	query := `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, title, time.Now(), conversationID)
	return err
}

// TouchConversation bumps the updated_at timestamp
func TouchConversation(ctx context.Context, db Execer, conversationID string) error {
	_, err := db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now(), conversationID)
	return err
}

// ListConversationsByUser retrieves a user's conversations, most recently
// updated first
func ListConversationsByUser(ctx context.Context, db sqlscan.Querier, userID string, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, title, mode, owner_id, created_at, updated_at FROM conversations WHERE owner_id = ? ORDER BY updated_at DESC LIMIT ?`
	var conversations []Conversation
	err := sqlscan.Select(ctx, db, &conversations, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// DeriveTitle derives a conversation title from the first user message:
// capped at 50 characters with an ellipsis when truncated.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleMaxLen]) + "..."
}

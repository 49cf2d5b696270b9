package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/SohailShaikh7860/ai-agent-cli/src/aisdk"
)

// CreateMessage appends a message to a conversation. The ordinal comes from
// the autoincrement column, so insertion order is the replay order.
func CreateMessage(ctx context.Context, db ExecQuerier, message *Message) error {
	if message.Role != RoleUser && message.Role != RoleAssistant {
		return fmt.Errorf("invalid message role: %q", message.Role)
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query, message.ID, message.ConversationID, message.Role, message.Content, message.CreatedAt)
	if err != nil {
		return err
	}
	if ordinal, err := res.LastInsertId(); err == nil {
		message.Ordinal = ordinal
	}
	return nil
}

// GetMessagesByConversationID retrieves all messages for a conversation in
// insertion order
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT ordinal, id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY ordinal`
	var messages []Message
	err := sqlscan.Select(ctx, db, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CountMessages returns the number of messages in a conversation
func CountMessages(ctx context.Context, db sqlscan.Querier, conversationID string) (int, error) {
	var count int
	err := sqlscan.Get(ctx, db, &count, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FormatMessages maps persisted messages to the model-ready transcript,
// preserving order. The full history goes out every turn; cost grows with
// conversation length.
func FormatMessages(messages []Message) []*aisdk.Message {
	formatted := make([]*aisdk.Message, 0, len(messages))
	for _, m := range messages {
		formatted = append(formatted, &aisdk.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return formatted
}

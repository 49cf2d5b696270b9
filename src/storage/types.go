package storage

import "time"

// Conversation modes. The mode is fixed at creation and decides which
// capability applies for the conversation's lifetime.
const (
	ModeChat  = "chat"
	ModeTool  = "tool"
	ModeAgent = "agent"
)

// Message roles persisted by this client.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultConversationTitle is the placeholder used until the first user
// message supplies a real title.
const DefaultConversationTitle = "New Conversation"

// ValidMode reports whether mode is one of the closed mode set.
func ValidMode(mode string) bool {
	switch mode {
	case ModeChat, ModeTool, ModeAgent:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is a server-held record binding a bearer token to a user.
type Session struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Token     string     `json:"token" db:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the session has passed its expiry. Sessions
// without an expiry never expire on the server side.
func (s *Session) Expired() bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(time.Now())
}

type Conversation struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Mode      string    `json:"mode" db:"mode"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Messages holds the ordered history when loaded via
	// GetOrCreateConversation; not populated by plain lookups.
	Messages []Message `json:"messages,omitempty" db:"-"`
}

type Message struct {
	Ordinal        int64     `json:"ordinal" db:"ordinal"`
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

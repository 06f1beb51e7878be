package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopmate-ai/shopmate/pkg/domain/types"
)

const maxTitleRunes = 60

// Conversation is a chat thread owned by one user
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one entry of a conversation's append-only log.
// ID is assigned by the repository and defines ordering.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	Role           types.Role `json:"role"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DeriveTitle builds a provisional conversation title from the first user message
func DeriveTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if title == "" {
		return "New conversation"
	}
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxTitleRunes-1])) + "…"
}

// RecentMessages returns at most n trailing messages, oldest first
func RecentMessages(messages []*Message, n int) []*Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

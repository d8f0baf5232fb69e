package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Role identifies who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WebsiteVisitorID keys the shared history of anonymous website chat visitors.
const WebsiteVisitorID = "website_visitor"

// ConversationEntry is one immutable turn of a conversation.
type ConversationEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ConversationStore keeps the ordered dialogue of every user id.
// Implementations must return copies; callers never alias stored history.
type ConversationStore interface {
	// GetOrCreate returns the history for userID, registering an empty one when absent.
	GetOrCreate(ctx context.Context, userID string) ([]ConversationEntry, error)

	// AppendTurn appends the user entry then the assistant entry as a single step.
	AppendTurn(ctx context.Context, userID, userText, replyText string) error

	// Clear removes all entries for userID.
	Clear(ctx context.Context, userID string) error
}

// QueryInput is what the responder chain receives for one inbound message.
type QueryInput struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// ToMessage converts the entry into the chat model's message type.
func (e ConversationEntry) ToMessage() *schema.Message {
	if e.Role == RoleAssistant {
		return schema.AssistantMessage(e.Text, nil)
	}
	return schema.UserMessage(e.Text)
}

// ToMessages converts a history into chat model messages, preserving order.
func ToMessages(history []ConversationEntry) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history))
	for _, e := range history {
		msgs = append(msgs, e.ToMessage())
	}
	return msgs
}

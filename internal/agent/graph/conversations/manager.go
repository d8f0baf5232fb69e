package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/whatsapp-bot/server/internal/agent/model"
)

// resetKeywords are matched case-insensitively anywhere in the message.
var resetKeywords = []string{"forget", "clear chat", "clear", "reset", "restart"}

// IsResetCommand reports whether text asks for the conversation to be wiped.
func IsResetCommand(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range resetKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type MessagesManager struct {
	store model.ConversationStore
}

func NewMessagesManager(store model.ConversationStore) *MessagesManager {
	return &MessagesManager{store: store}
}

// BuildDialogue returns the stored history followed by the new user turn.
// The new turn only exists on the returned slice.
func (cm *MessagesManager) BuildDialogue(ctx context.Context, userID, text string) ([]*schema.Message, error) {
	history, err := cm.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, model.ToMessages(history)...)
	messages = append(messages, schema.UserMessage(text))
	return messages, nil
}

// SaveTurn commits a completed exchange.
func (cm *MessagesManager) SaveTurn(ctx context.Context, userID, text, reply string) error {
	return cm.store.AppendTurn(ctx, userID, text, reply)
}

// Reset clears the user's history.
func (cm *MessagesManager) Reset(ctx context.Context, userID string) error {
	return cm.store.Clear(ctx, userID)
}

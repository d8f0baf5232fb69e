package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/whatsapp-bot/server/internal/agent/graph/conversations"
	"github.com/whatsapp-bot/server/internal/agent/graph/prompts"
	"github.com/whatsapp-bot/server/internal/agent/model"
)

const (
	NodeInputConverter    = "InputConverter"
	NodePersonaTemplate   = "PersonaTemplate"
	NodeResponseChatModel = "ResponseChatModel"
)

// NewInputConverterNode turns a QueryInput into the persona template variables
// carrying the stored history plus the new user turn. Nothing is persisted here;
// the caller commits the turn once a reply exists.
func NewInputConverterNode(mm *conversations.MessagesManager, persona model.PersonaConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (map[string]any, error) {
		dialogue, err := mm.BuildDialogue(ctx, input.UserID, input.Text)
		if err != nil {
			return nil, fmt.Errorf("error loading conversation history: %w", err)
		}
		return prompts.PersonaVariables(persona, dialogue), nil
	})
}

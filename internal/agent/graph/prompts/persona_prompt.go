package prompts

import (
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/whatsapp-bot/server/internal/agent/model"
)

// HistoryKey is the template variable holding the dialogue replayed after the persona.
const HistoryKey = "history"

//go:embed template/persona_prompt.txt
var personaSystemPrompt string

// NewPersonaTemplate returns the chat template used on every model call:
// the persona system instruction followed by the dialogue.
func NewPersonaTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(personaSystemPrompt),
		schema.MessagesPlaceholder(HistoryKey, false),
	)
}

// PersonaVariables builds the template input for one call.
func PersonaVariables(config model.PersonaConfig, dialogue []*schema.Message) map[string]any {
	return map[string]any{
		"Name":     strings.TrimSpace(config.Name),
		"Website":  strings.TrimSpace(config.Website),
		HistoryKey: dialogue,
	}
}

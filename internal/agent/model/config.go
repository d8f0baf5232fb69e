package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	// Backend selects the ConversationStore implementation: "memory" or "redis".
	Backend string        `envconfig:"CONVERSATION_BACKEND" default:"memory"`
	TTL     time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}

// PersonaConfig fills the system instruction template.
type PersonaConfig struct {
	Name    string `envconfig:"PERSONA_NAME" default:"Jace"`
	Website string `envconfig:"PERSONA_WEBSITE"`
}

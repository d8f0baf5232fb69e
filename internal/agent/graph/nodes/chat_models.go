package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/whatsapp-bot/server/internal/agent/model"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	RespConfig *model.ResponseModelConfig
}

// NewResponseChatModel creates the Gemini chat model that answers users.
// A missing API key is not rejected here; calls fail at first use instead.
func NewResponseChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	if config.RespConfig == nil {
		return nil, fmt.Errorf("response model config is nil")
	}
	if config.APIKey == "" {
		logx.Warn().Msg("GEMINI_API_KEY is empty; every AI reply will fall back")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cfg := &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
	}
	if config.RespConfig.MaxTokens > 0 {
		cfg.MaxTokens = &config.RespConfig.MaxTokens
	}

	chatModel, err := gemini.NewChatModel(ctx, cfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Response model")
		return nil, fmt.Errorf("error creating Response model: %w", err)
	}

	logx.Debug().
		Str("model", config.RespConfig.Model).
		Float32("temperature", config.RespConfig.Temperature).
		Msg("Response chat model ready")
	return chatModel, nil
}

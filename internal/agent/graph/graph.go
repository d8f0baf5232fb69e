package graph

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/whatsapp-bot/server/internal/agent/graph/conversations"
	"github.com/whatsapp-bot/server/internal/agent/graph/nodes"
	"github.com/whatsapp-bot/server/internal/agent/graph/observers"
	"github.com/whatsapp-bot/server/internal/agent/graph/prompts"
	"github.com/whatsapp-bot/server/internal/agent/model"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

const (
	// ResetReply confirms that a reset keyword wiped the history.
	ResetReply = "Memory cleared! Let's start fresh. How can I help you?"
	// FallbackReply stands in for the model whenever a reply cannot be produced.
	FallbackReply = "Sorry, I'm having trouble thinking right now. Please try again in a moment."
)

// Config holds everything needed to compose the responder chain.
type Config struct {
	ChatModel einomodel.BaseChatModel
	ModelName string
	Persona   model.PersonaConfig
	Store     model.ConversationStore
}

// Responder turns one inbound message into a reply while keeping the user's history.
type Responder struct {
	runnable  compose.Runnable[model.QueryInput, *schema.Message]
	mm        *conversations.MessagesManager
	modelName string
}

// BuildResponder compiles InputConverter -> PersonaTemplate -> ResponseChatModel.
func BuildResponder(ctx context.Context, cfg Config) (*Responder, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is nil")
	}

	mm := conversations.NewMessagesManager(cfg.Store)

	chain := compose.NewChain[model.QueryInput, *schema.Message]()
	chain.
		AppendLambda(nodes.NewInputConverterNode(mm, cfg.Persona), compose.WithNodeName(nodes.NodeInputConverter)).
		AppendChatTemplate(prompts.NewPersonaTemplate(), compose.WithNodeName(nodes.NodePersonaTemplate)).
		AppendChatModel(cfg.ChatModel, compose.WithNodeName(nodes.NodeResponseChatModel))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling responder chain")
		return nil, fmt.Errorf("error compiling responder chain: %w", err)
	}

	logx.Debug().Msg("Responder chain compiled successfully")
	return &Responder{runnable: runnable, mm: mm, modelName: cfg.ModelName}, nil
}

// Respond never fails: reset keywords clear the history, model or history
// failures yield FallbackReply and leave the history untouched.
func (r *Responder) Respond(ctx context.Context, userID, text string) string {
	if conversations.IsResetCommand(text) {
		if err := r.mm.Reset(ctx, userID); err != nil {
			logx.Error().Err(err).Str("user_id", userID).Msg("failed to clear conversation history")
			return FallbackReply
		}
		logx.Info().Str("user_id", userID).Msg("conversation history cleared")
		return ResetReply
	}

	out, err := r.runnable.Invoke(ctx, model.QueryInput{UserID: userID, Text: text},
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("AI reply failed")
		return FallbackReply
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Error().Str("user_id", userID).Msg("AI reply was empty")
		return FallbackReply
	}
	reply := strings.TrimSpace(out.Content)

	r.logUsage(userID, out)

	if err := r.mm.SaveTurn(ctx, userID, text, reply); err != nil {
		// the user still gets the reply; only the memory of it is lost
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to save conversation turn")
	}
	return reply
}

func (r *Responder) logUsage(userID string, out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(r.modelName))
	logx.Debug().
		Str("user_id", userID).
		Str("model", r.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

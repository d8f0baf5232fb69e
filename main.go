package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/whatsapp-bot/server/internal/agent/graph"
	"github.com/whatsapp-bot/server/internal/agent/graph/nodes"
	"github.com/whatsapp-bot/server/internal/agent/model"
	"github.com/whatsapp-bot/server/internal/agent/repo"
	"github.com/whatsapp-bot/server/internal/contact"
	"github.com/whatsapp-bot/server/internal/core"
	"github.com/whatsapp-bot/server/internal/handler"
	"github.com/whatsapp-bot/server/internal/keepalive"
	"github.com/whatsapp-bot/server/internal/mailer"
	"github.com/whatsapp-bot/server/internal/whatsapp"
	logx "github.com/whatsapp-bot/server/pkg/logger"
	pkgredis "github.com/whatsapp-bot/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the relay,
// sourced from environment variables (loaded from .env for local runs).
// Nothing is required: missing secrets surface as failures at first use.
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Server            handler.Config
	Redis             pkgredis.Config
	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Response     model.ResponseModelConfig
	Persona      model.PersonaConfig
	Conversation model.ConversationConfig

	// Outbound notifiers
	WhatsApp  whatsapp.Config
	SMTP      mailer.Config
	Contact   contact.Config
	KeepAlive keepalive.Config
}

func main() {
	// Load .env file
	envErr := godotenv.Load(".env")

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
	if envErr != nil {
		logx.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if err := run(cfg); err != nil {
		logx.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg AppConfig) error {
	ctx := context.Background()
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	store, closeStore, err := newConversationStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	chatModel, err := nodes.NewResponseChatModel(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		RespConfig: &cfg.Response,
	})
	if err != nil {
		return err
	}

	responder, err := graph.BuildResponder(ctx, graph.Config{
		ChatModel: chatModel,
		ModelName: cfg.Response.Model,
		Persona:   cfg.Persona,
		Store:     store,
	})
	if err != nil {
		return err
	}

	wa := whatsapp.NewClient(cfg.WhatsApp, httpClient)

	dispatcher, err := newContactDispatcher(cfg, wa)
	if err != nil {
		return err
	}

	keepalive.New(cfg.KeepAlive, httpClient).Start()

	router := handler.NewRouter(handler.Handlers{
		Health:  handler.NewHealthHandler(),
		Webhook: handler.NewWebhookHandler(responder, wa, cfg.WhatsApp.VerifyToken),
		Chat:    handler.NewChatHandler(responder),
		Contact: handler.NewContactHandler(dispatcher, cfg.Contact.MaxUploadBytes),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("port", cfg.Server.Port).Str("env", cfg.Environment.String()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("server forced to shutdown")
		}

		// contact notifications may still be in flight
		dispatcher.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logx.Info().Msg("server stopped")
	return nil
}

func newConversationStore(cfg AppConfig) (model.ConversationStore, func(), error) {
	switch strings.ToLower(cfg.Conversation.Backend) {
	case "", "memory":
		logx.Info().Msg("using in-memory conversation store")
		return repo.NewMemoryConversationRepository(), func() {}, nil
	case "redis":
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Dur("ttl", cfg.Conversation.TTL).Msg("using Redis conversation store")
		return repo.NewRedisConversationRepository(rdb, cfg.Conversation.TTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CONVERSATION_BACKEND %q", cfg.Conversation.Backend)
	}
}

func newContactDispatcher(cfg AppConfig, wa *whatsapp.Client) (*contact.Dispatcher, error) {
	switch strings.ToLower(cfg.Contact.Notifier) {
	case "", contact.NotifierWhatsApp:
		notifier := contact.NewWhatsAppNotifier(wa, cfg.WhatsApp.OwnerNumber)
		return contact.NewDispatcher(notifier, true, cfg.Contact.Workers, cfg.Contact.NotifyTimeout), nil
	case contact.NotifierEmail:
		notifier := contact.NewEmailNotifier(mailer.New(cfg.SMTP))
		return contact.NewDispatcher(notifier, false, cfg.Contact.Workers, cfg.Contact.NotifyTimeout), nil
	default:
		return nil, fmt.Errorf("unknown CONTACT_NOTIFIER %q", cfg.Contact.Notifier)
	}
}

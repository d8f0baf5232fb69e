package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds the HTTP server settings.
type Config struct {
	Port         string        `envconfig:"PORT" default:"10000"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
}

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health  *HealthHandler
	Webhook *WebhookHandler
	Chat    *ChatHandler
	Contact *ContactHandler
}

// NewRouter mounts every endpoint. Any origin may call the API.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", CorrelationIDHeader},
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Health)

	r.Get("/webhook", h.Webhook.Verify)
	r.Post("/webhook", h.Webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat.Chat)
		r.Post("/contact", h.Contact.Submit)
	})

	return r
}

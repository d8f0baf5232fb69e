package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/whatsapp-bot/server/internal/whatsapp"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

const maxWebhookBodyBytes = 1 << 20

// Responder produces a reply for one inbound message. It never fails.
type Responder interface {
	Respond(ctx context.Context, userID, text string) string
}

// TextSender delivers a text message to a WhatsApp number.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// WebhookHandler handles the WhatsApp webhook.
type WebhookHandler struct {
	responder   Responder
	sender      TextSender
	verifyToken string
}

func NewWebhookHandler(responder Responder, sender TextSender, verifyToken string) *WebhookHandler {
	if verifyToken == "" {
		logx.Warn().Msg("WHATSAPP_VERIFY_TOKEN is empty; webhook verification will always be rejected")
	}
	return &WebhookHandler{responder: responder, sender: sender, verifyToken: verifyToken}
}

// Verify handles GET /webhook
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		logx.Warn().Str("mode", mode).Msg("webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	logx.Info().Msg("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// Receive handles POST /webhook. It always acknowledges with 200 so the
// platform does not redeliver.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	defer writeStatus(w, http.StatusOK, "success", "")
	logger := requestLogger(r)

	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("ignoring undecodable webhook payload")
		return
	}

	from, text, ok := payload.FirstTextMessage()
	if !ok {
		logger.Debug().Str("object", payload.Object).Msg("ignoring non-text webhook event")
		return
	}

	logger.Info().Str("from", from).Msg("incoming WhatsApp message")
	reply := h.responder.Respond(r.Context(), from, text)
	if err := h.sender.SendText(r.Context(), from, reply); err != nil {
		logger.Error().Err(err).Str("to", from).Msg("failed to send WhatsApp reply")
	}
}

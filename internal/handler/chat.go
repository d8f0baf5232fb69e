package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/whatsapp-bot/server/internal/agent/model"
)

const maxChatBodyBytes = 64 << 10

// EmptyMessageReply answers a blank message so the widget always has something to show.
const EmptyMessageReply = "It looks like your message was empty. What would you like to know?"

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler serves the website chat widget. All visitors share one history.
type ChatHandler struct {
	responder Responder
}

func NewChatHandler(responder Responder) *ChatHandler {
	return &ChatHandler{responder: responder}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	logger := requestLogger(r)
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		logger.Debug().Msg("empty website message")
		writeJSON(w, http.StatusOK, chatResponse{Reply: EmptyMessageReply})
		return
	}

	logger.Info().Str("user_id", model.WebsiteVisitorID).Msg("incoming website message")
	reply := h.responder.Respond(r.Context(), model.WebsiteVisitorID, msg)
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

package handler

import (
	"encoding/json"
	"net/http"

	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeStatus(w http.ResponseWriter, status int, state, message string) {
	body := map[string]string{"status": state}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
)

// HandleChat processes a user submission through an HTTP POST request. It expects a
// "message" form field, hands the text to the session, and renders the updated transcript
// partial; the eventual answer arrives over the event stream once the backend call settles.
//
// Non-POST requests are rejected, as are blank messages. While a request is in flight the
// session refuses further submissions, which surfaces here as a conflict response rather
// than a queued or merged turn.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if strings.TrimSpace(msg) == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	if !m.sess.Submit(msg) {
		http.Error(w, "A request is already in flight", http.StatusConflict)
		return
	}

	rendered, err := m.renderMessages()
	if err != nil {
		m.logger.Error("Failed to render messages", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := w.Write([]byte(rendered)); err != nil {
		m.logger.Error("Failed to write response", slog.String(errLoggerKey, err.Error()))
	}
}

package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/Tanmay0215/legal-ai/internal/session"
)

type message struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp time.Time

	Pending bool
}

type documentView struct {
	FileName      string
	DocumentType  string
	ConfidencePct int
	UploadedAt    time.Time
}

type chatboxView struct {
	Messages []message
	Pending  bool
	Err      string
}

type homePageData struct {
	Chatbox   chatboxView
	Document  models.DocumentContext
	Documents []documentView
}

func chatboxViewFrom(st session.State) (chatboxView, error) {
	msgs := make([]message, len(st.Messages))
	for i, msg := range st.Messages {
		content, err := models.RenderHTML(msg.Content)
		if err != nil {
			return chatboxView{}, fmt.Errorf("failed to render message %s: %w", msg.ID, err)
		}
		msgs[i] = message{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   content,
			Timestamp: msg.Timestamp,
			Pending:   msg.Pending,
		}
	}

	return chatboxView{
		Messages: msgs,
		Pending:  st.Pending,
		Err:      st.Err,
	}, nil
}

// HandleHome renders the full page: transcript, document badge, and upload log.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	st := m.sess.Snapshot()

	chatbox, err := chatboxViewFrom(st)
	if err != nil {
		m.logger.Error("Failed to render contents", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	recs, err := m.docs.Documents(r.Context())
	if err != nil {
		// The upload log is decoration; the page still works without it.
		m.logger.Error("Failed to list documents", slog.String(errLoggerKey, err.Error()))
	}

	data := homePageData{
		Chatbox:   chatbox,
		Document:  st.Document,
		Documents: documentViews(recs),
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func documentViews(recs []models.DocumentRecord) []documentView {
	views := make([]documentView, len(recs))
	for i, rec := range recs {
		views[i] = documentView{
			FileName:      rec.FileName,
			DocumentType:  rec.DocumentType,
			ConfidencePct: int(rec.Confidence * 100),
			UploadedAt:    rec.UploadedAt,
		}
	}
	return views
}

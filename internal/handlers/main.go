package handlers

import (
	"context"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	legalai "github.com/Tanmay0215/legal-ai"
	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/Tanmay0215/legal-ai/internal/session"
	"github.com/tmaxmax/go-sse"
)

// Uploader submits a file to the external upload collaborator and returns its
// classification. Only a successful result may move the document gate.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error)
}

// DocumentLog records successfully classified uploads for the upload panel.
type DocumentLog interface {
	AddDocument(ctx context.Context, rec models.DocumentRecord) (string, error)
	Documents(ctx context.Context) ([]models.DocumentRecord, error)
}

// Main handles the core functionality of the assistant surface, managing server-sent
// events, HTML templates, and the binding between the live session and the HTTP layer.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	sess     *session.Session
	uploader Uploader
	docs     DocumentLog

	logger *slog.Logger
}

const (
	messagesSSETopic  = "messages"
	documentsSSETopic = "documents"

	errLoggerKey = "err"
)

// SSE event types for real-time updates.
var (
	messagesSSEType  = sse.Type("messages")
	documentsSSEType = sse.Type("documents")
)

// NewMain creates a new Main instance bound to the given session, uploader, and document
// log. It initializes the SSE server with default configurations and parses the required
// HTML templates from the embedded filesystem. The session's update hook is wired to push
// the freshly rendered transcript to all connected clients.
func NewMain(sess *session.Session, uploader Uploader, docs DocumentLog, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		legalai.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	m := Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      []string{sse.DefaultTopic, messagesSSETopic, documentsSSETopic},
				}, true
			},
		},
		templates: tmpl,
		sess:      sess,
		uploader:  uploader,
		docs:      docs,
		logger:    logger.With(slog.String("module", "handlers")),
	}

	sess.SetOnUpdate(m.publishMessages)

	return m, nil
}

// HandleSSE serves the event stream carrying transcript and upload-log updates.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It broadcasts a close
// message to all connected clients and waits up to 5 seconds for connections to terminate.
// After the timeout, any remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeChat")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

func (m Main) publishMessages() {
	rendered, err := m.renderMessages()
	if err != nil {
		m.logger.Error("Failed to render messages", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(rendered)
	if err := m.sseSrv.Publish(&msg, messagesSSETopic); err != nil {
		m.logger.Error("Failed to publish messages", slog.String(errLoggerKey, err.Error()))
	}
}

func (m Main) renderMessages() (string, error) {
	st := m.sess.Snapshot()

	data, err := chatboxViewFrom(st)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "messages", data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
)

const maxUploadBytes = 32 << 20

// HandleUpload receives a document through a multipart POST, forwards it to the upload
// collaborator, and on a successful classification moves the session's document gate,
// appends an upload-log record, and notifies connected clients. A failed classification
// leaves the session untouched.
func (m Main) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		m.logger.Error("Failed to parse multipart form", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		m.logger.Error("Failed to read file field", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := m.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		m.logger.Error("Upload failed",
			slog.String("fileName", header.Filename),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if !result.Success {
		// The collaborator rejected the document; the gate stays where it was.
		m.logger.Error("Upload rejected",
			slog.String("fileName", header.Filename),
			slog.String("message", result.Message))
		http.Error(w, result.Message, http.StatusUnprocessableEntity)
		return
	}

	m.sess.SetDocumentContext(models.DocumentContext{
		Present:      true,
		FileName:     header.Filename,
		DocumentType: result.DocumentType,
		Confidence:   result.Confidence,
	})

	rec := models.DocumentRecord{
		ID:           uuid.New().String(),
		FileName:     header.Filename,
		DocumentType: result.DocumentType,
		Confidence:   result.Confidence,
		UploadedAt:   time.Now(),
	}
	if _, err := m.docs.AddDocument(r.Context(), rec); err != nil {
		m.logger.Error("Failed to record document",
			slog.String("fileName", header.Filename),
			slog.String(errLoggerKey, err.Error()))
	}

	rendered, err := m.renderDocuments(r)
	if err != nil {
		m.logger.Error("Failed to render documents", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msg := sse.Message{Type: documentsSSEType}
	msg.AppendData(rendered)
	if err := m.sseSrv.Publish(&msg, documentsSSETopic); err != nil {
		m.logger.Error("Failed to publish documents", slog.String(errLoggerKey, err.Error()))
	}

	if _, err := w.Write([]byte(rendered)); err != nil {
		m.logger.Error("Failed to write response", slog.String(errLoggerKey, err.Error()))
	}
}

type documentsData struct {
	Document  models.DocumentContext
	Documents []documentView
}

func (m Main) renderDocuments(r *http.Request) (string, error) {
	recs, err := m.docs.Documents(r.Context())
	if err != nil {
		m.logger.Error("Failed to list documents", slog.String(errLoggerKey, err.Error()))
	}
	data := documentsData{
		Document:  m.sess.Snapshot().Document,
		Documents: documentViews(recs),
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "documents", data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

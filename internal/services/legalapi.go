package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Tanmay0215/legal-ai/internal/models"
)

// LegalAPI provides the document-QA variant of the answering backend. It delegates every
// question to the legal document service, which keeps the uploaded document as its own
// context. The same client doubles as the upload collaborator and the liveness probe.
type LegalAPI struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

type legalChatRequest struct {
	Question string `json:"question"`
}

type legalChatResponse struct {
	Answer  string `json:"answer"`
	Success bool   `json:"success"`
}

type legalUploadResponse struct {
	Success      bool    `json:"success"`
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message"`
}

// noDocumentPhrases are the fragments the service is known to answer with when no document
// has been uploaded yet. A match classifies the failure as the missing-precondition kind
// rather than a generic backend error.
var noDocumentPhrases = []string{
	"no documents uploaded",
	"no document uploaded",
	"upload a document",
	"please upload",
}

// NewLegalAPI creates a client for the legal document service at the given base URL.
func NewLegalAPI(baseURL string, logger *slog.Logger) LegalAPI {
	return LegalAPI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "legalapi")),
	}
}

// Answer implements session.Answerer. The history is unused; the service answers each
// question against the document it holds.
func (l LegalAPI) Answer(ctx context.Context, question string, _ []models.Message) models.AnswerResult {
	body, err := json.Marshal(legalChatRequest{Question: question})
	if err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error marshaling request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error creating request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return models.Failed(models.ErrorKindNetwork, fmt.Sprintf("error sending request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		detail := strings.TrimSpace(string(text))
		if isNoDocument(detail) {
			return models.Failed(models.ErrorKindNoDocument, detail)
		}
		return models.Failed(models.ErrorKindBackend,
			fmt.Sprintf("chat failed: %d %s", resp.StatusCode, detail))
	}

	var res legalChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error unmarshaling response: %v", err))
	}

	if isNoDocument(res.Answer) {
		return models.Failed(models.ErrorKindNoDocument, res.Answer)
	}
	if !res.Success {
		return models.Failed(models.ErrorKindBackend, res.Answer)
	}

	return models.Answered(res.Answer)
}

func isNoDocument(text string) bool {
	text = strings.ToLower(text)
	for _, phrase := range noDocumentPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// Health probes the service root. Any 2xx response counts as alive.
func (l LegalAPI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check failed: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

// Upload submits a PDF to the service and returns its classification. Only the result flows
// back into the session; a failed upload leaves the document gate untouched.
func (l LegalAPI) Upload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return models.UploadResult{}, fmt.Errorf("only PDF files are allowed")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return models.UploadResult{}, fmt.Errorf("error copying file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.UploadResult{}, fmt.Errorf("error closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/upload", &buf)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := l.client.Do(req)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return models.UploadResult{}, fmt.Errorf("upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var res legalUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.UploadResult{}, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return models.UploadResult{
		Success:      res.Success,
		DocumentType: res.DocumentType,
		Confidence:   res.Confidence,
		Message:      res.Message,
	}, nil
}

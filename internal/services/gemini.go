package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tanmay0215/legal-ai/internal/models"
)

// Gemini provides the generic-chat variant of the answering backend against the Google
// generative language API. It requires an API key before first use; without one it fails
// fast instead of attempting a network call.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string

	client *http.Client

	logger *slog.Logger
}

type geminiChatRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiChatResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

const (
	geminiAPIEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// finishReasonSafety is the sentinel the provider sets when a response is withheld by
	// its safety filters.
	finishReasonSafety = "SAFETY"
)

// NewGemini creates a new Gemini instance with the specified API key and model name.
func NewGemini(apiKey, model string, logger *slog.Logger) Gemini {
	return Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiAPIEndpoint,
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "gemini")),
	}
}

// Answer implements session.Answerer. The conversation history is replayed as role-tagged
// turns, assistant turns under the provider's "model" role, with the new question appended
// as the final user turn.
func (g Gemini) Answer(ctx context.Context, question string, history []models.Message) models.AnswerResult {
	if g.apiKey == "" {
		return models.Failed(models.ErrorKindNotConfigured, "gemini api key is not set")
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, msg := range history {
		if msg.Pending || msg.Content == "" {
			continue
		}
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: question}},
	})

	jsonBody, err := json.Marshal(geminiChatRequest{Contents: contents})
	if err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error marshaling request: %v", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error creating request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return models.Failed(models.ErrorKindNetwork, fmt.Sprintf("error sending request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e geminiError
		detail := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error.Message != "" {
			detail = e.Error.Message
		}
		return models.Failed(models.ErrorKindBackend,
			fmt.Sprintf("gemini error %d: %s", resp.StatusCode, detail))
	}

	var res geminiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.Failed(models.ErrorKindBackend, fmt.Sprintf("error unmarshaling response: %v", err))
	}

	if len(res.Candidates) == 0 {
		return models.Failed(models.ErrorKindBackend, "no response generated")
	}

	candidate := res.Candidates[0]
	if candidate.FinishReason == finishReasonSafety {
		return models.Failed(models.ErrorKindContentBlocked, "response blocked by safety filters")
	}
	if len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].Text == "" {
		return models.Failed(models.ErrorKindBackend, "empty candidate content")
	}

	return models.Answered(candidate.Content.Parts[0].Text)
}

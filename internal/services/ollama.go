package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Tanmay0215/legal-ai/internal/models"
	"github.com/ollama/ollama/api"
)

// Ollama provides a credential-free generic-chat backend against a local Ollama server.
type Ollama struct {
	host  string
	model string

	client *api.Client

	logger *slog.Logger
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. If the
// provided host URL is invalid, the function will panic.
func NewOllama(host, model string, logger *slog.Logger) Ollama {
	u, err := url.Parse(host)
	if err != nil {
		panic(err)
	}

	return Ollama{
		host:   host,
		model:  model,
		client: api.NewClient(u, &http.Client{}),
		logger: logger.With(slog.String("module", "ollama")),
	}
}

// Answer implements session.Answerer. The response is collected without streaming; the
// session resolves its placeholder in a single terminal mutation.
func (o Ollama) Answer(ctx context.Context, question string, history []models.Message) models.AnswerResult {
	msgs := make([]api.Message, 0, len(history)+1)
	for _, msg := range history {
		if msg.Pending || msg.Content == "" {
			continue
		}
		msgs = append(msgs, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	msgs = append(msgs, api.Message{
		Role:    "user",
		Content: question,
	})

	f := false
	req := api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &f,
	}

	var answer strings.Builder
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		answer.WriteString(res.Message.Content)
		return nil
	}); err != nil {
		return models.Failed(models.ErrorKindNetwork, fmt.Sprintf("error sending request: %v", err))
	}

	return models.Answered(answer.String())
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tanmay0215/legal-ai/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI provides an alternative generic-chat backend on top of the OpenAI chat completion
// API. Like the other credentialed variants it fails fast when no key is configured.
type OpenAI struct {
	apiKey string
	model  string

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance with the specified API key and model name.
func NewOpenAI(apiKey, model string, logger *slog.Logger) OpenAI {
	return OpenAI{
		apiKey: apiKey,
		model:  model,
		client: goopenai.NewClient(apiKey),
		logger: logger.With(slog.String("module", "openai")),
	}
}

// Answer implements session.Answerer.
func (o OpenAI) Answer(ctx context.Context, question string, history []models.Message) models.AnswerResult {
	if o.apiKey == "" {
		return models.Failed(models.ErrorKindNotConfigured, "openai api key is not set")
	}

	msgs := make([]goopenai.ChatCompletionMessage, 0, len(history)+1)
	for _, msg := range history {
		if msg.Pending || msg.Content == "" {
			continue
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return models.Failed(models.ErrorKindBackend, fmt.Sprintf("openai error: %v", apiErr))
		}
		return models.Failed(models.ErrorKindNetwork, fmt.Sprintf("error sending request: %v", err))
	}

	if len(resp.Choices) == 0 {
		return models.Failed(models.ErrorKindBackend, "no choices found")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return models.Failed(models.ErrorKindContentBlocked, "response blocked by content filter")
	}

	return models.Answered(choice.Message.Content)
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Tanmay0215/legal-ai/internal/services"
	"github.com/Tanmay0215/legal-ai/internal/session"
	"gopkg.in/yaml.v3"
)

type backendConfig interface {
	answerer(logger *slog.Logger) (session.Answerer, error)
}

// BaseBackendConfig contains the common fields for all backend configurations.
type BaseBackendConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port string `yaml:"port"`

	// UploadBaseURL points at the legal document service used for uploads and the
	// startup liveness probe, regardless of which answering backend is active.
	UploadBaseURL string `yaml:"uploadBaseURL"`

	Backend backendConfig `yaml:"backend"`
}

type legalAPIConfig struct {
	BaseBackendConfig `yaml:",inline"`
	BaseURL           string `yaml:"baseURL"`
}

type geminiConfig struct {
	BaseBackendConfig `yaml:",inline"`
	APIKey            string `yaml:"apiKey"`
}

type openAIConfig struct {
	BaseBackendConfig `yaml:",inline"`
	APIKey            string `yaml:"apiKey"`
}

type ollamaConfig struct {
	BaseBackendConfig `yaml:",inline"`
	Host              string `yaml:"host"`
}

const defaultLegalAPIBaseURL = "http://localhost:8000"

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port          string         `yaml:"port"`
		UploadBaseURL string         `yaml:"uploadBaseURL"`
		Backend       map[string]any `yaml:"backend"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.UploadBaseURL = rawConfig.UploadBaseURL

	provider, ok := rawConfig.Backend["provider"].(string)
	if !ok {
		return fmt.Errorf("backend provider is required")
	}

	backendRawYAML, err := yaml.Marshal(rawConfig.Backend)
	if err != nil {
		return err
	}

	var backend backendConfig
	switch provider {
	case "legalapi":
		backend = &legalAPIConfig{}
	case "gemini":
		backend = &geminiConfig{}
	case "openai":
		backend = &openAIConfig{}
	case "ollama":
		backend = &ollamaConfig{}
	default:
		return fmt.Errorf("unknown backend provider: %s", provider)
	}

	if err := yaml.Unmarshal(backendRawYAML, backend); err != nil {
		return err
	}

	c.Backend = backend

	return nil
}

func (c config) uploadBaseURL() string {
	base := c.UploadBaseURL
	if base == "" {
		base = os.Getenv("LEGAL_API_URL")
	}
	if base == "" {
		base = defaultLegalAPIBaseURL
	}
	return base
}

func (l legalAPIConfig) answerer(logger *slog.Logger) (session.Answerer, error) {
	base := l.BaseURL
	if base == "" {
		base = os.Getenv("LEGAL_API_URL")
	}
	if base == "" {
		base = defaultLegalAPIBaseURL
	}
	return services.NewLegalAPI(base, logger), nil
}

func (g geminiConfig) answerer(logger *slog.Logger) (session.Answerer, error) {
	model := g.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	apiKey := g.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return services.NewGemini(apiKey, model, logger), nil
}

func (o openAIConfig) answerer(logger *slog.Logger) (session.Answerer, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return services.NewOpenAI(apiKey, o.Model, logger), nil
}

func (o ollamaConfig) answerer(logger *slog.Logger) (session.Answerer, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return services.NewOllama(host, o.Model, logger), nil
}

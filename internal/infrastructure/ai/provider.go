package ai

import (
	"fmt"
	"strings"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain"
)

// Proveedores soportados (LLM_PROVIDER).
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Config credenciales y endpoints por proveedor.
type Config struct {
	Provider        string
	DefaultModel    string
	OllamaURL       string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	GeminiAPIKey    string
}

// NewLLMService elige el adaptador según cfg.Provider (por defecto Ollama).
func NewLLMService(cfg Config) (ports.LLMService, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		return NewOllamaService(cfg.OllamaURL, cfg.DefaultModel), nil
	case ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.DefaultModel), nil
	case ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.DefaultModel), nil
	case ProviderGemini:
		return NewGeminiService(cfg.GeminiAPIKey, cfg.DefaultModel), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownLLMProvider, cfg.Provider)
	}
}

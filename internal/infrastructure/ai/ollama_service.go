package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain"
)

// Verificar en tiempo de compilación que OllamaService implementa LLMService.
var _ ports.LLMService = (*OllamaService)(nil)

// DefaultOllamaURL servidor Ollama local.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaService adaptador de LLMService sobre la API REST de Ollama (/api/generate, sin streaming).
// Es el proveedor por defecto: los modelos corren en la misma red que el backend.
type OllamaService struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewOllamaService construye el adaptador. baseURL vacío = DefaultOllamaURL.
func NewOllamaService(baseURL, defaultModel string) *OllamaService {
	return &OllamaService{
		baseURL:      strings.TrimRight(pick(baseURL, DefaultOllamaURL), "/"),
		defaultModel: defaultModel,
		httpClient:   newHTTPClient(),
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Ask envía el prompt a Ollama y devuelve el campo "response".
func (s *OllamaService) Ask(ctx context.Context, prompt, model string, opts ports.GenerateOptions) (string, error) {
	model = pick(model, s.defaultModel)
	if model == "" {
		return "", fmt.Errorf("AI: ollama: modelo no indicado: %w", domain.ErrLLMNotConfigured)
	}

	payload := ollamaRequest{Model: model, Prompt: prompt, Stream: false}
	if opts.Temperature != nil || opts.MaxTokens != nil {
		payload.Options = map[string]any{}
		if opts.Temperature != nil {
			payload.Options["temperature"] = *opts.Temperature
		}
		if opts.MaxTokens != nil {
			payload.Options["num_predict"] = *opts.MaxTokens
		}
	}

	raw, err := postJSON(ctx, s.httpClient, "ollama", s.baseURL+"/api/generate", nil, payload)
	if err != nil {
		var res ollamaResponse
		if raw != nil && json.Unmarshal(raw, &res) == nil && res.Error != "" {
			return "", fmt.Errorf("AI: ollama error: %s", res.Error)
		}
		return "", err
	}

	var res ollamaResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Ollama: %w", err)
	}
	if strings.TrimSpace(res.Response) == "" {
		return "", fmt.Errorf("AI: ollama: %w", domain.ErrLLMEmptyResponse)
	}
	return res.Response, nil
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain"
)

// Verificar en tiempo de compilación que AnthropicService implementa LLMService.
var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicBaseURL  = "https://api.anthropic.com"
	anthropicVersion  = "2023-06-01"
	anthropicMaxToken = 1024
)

// AnthropicService adaptador que implementa LLMService usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewAnthropicService construye el adaptador.
// Si apiKey está vacío las llamadas devuelven ErrLLMNotConfigured en lugar de panic.
func NewAnthropicService(apiKey, defaultModel string) *AnthropicService {
	return &AnthropicService{
		apiKey:       apiKey,
		baseURL:      anthropicBaseURL,
		defaultModel: defaultModel,
		httpClient:   newHTTPClient(),
	}
}

// WithBaseURL cambia el endpoint (proxy corporativo o servidor de pruebas).
func (s *AnthropicService) WithBaseURL(baseURL string) *AnthropicService {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Ask envía el prompt como único mensaje de usuario y concatena los bloques de texto.
func (s *AnthropicService) Ask(ctx context.Context, prompt, model string, opts ports.GenerateOptions) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("AI: ANTHROPIC_API_KEY: %w", domain.ErrLLMNotConfigured)
	}

	payload := anthropicRequest{
		Model:       pick(model, s.defaultModel),
		MaxTokens:   anthropicMaxToken,
		Temperature: opts.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	if opts.MaxTokens != nil {
		payload.MaxTokens = *opts.MaxTokens
	}

	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": anthropicVersion,
	}
	raw, err := postJSON(ctx, s.httpClient, "anthropic", s.baseURL+"/v1/messages", headers, payload)
	if err != nil {
		var statusErr *httpStatusError
		var errResp anthropicResponse
		if errors.As(err, &statusErr) && json.Unmarshal(raw, &errResp) == nil && errResp.Error != nil {
			return "", fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", err
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(raw, &anthResp); err != nil {
		return "", fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range anthResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("AI: Claude: %w", domain.ErrLLMEmptyResponse)
	}
	return sb.String(), nil
}

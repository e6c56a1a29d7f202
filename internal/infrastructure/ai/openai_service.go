package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain"
)

// Verificar en tiempo de compilación que OpenAIService implementa LLMService.
var _ ports.LLMService = (*OpenAIService)(nil)

// OpenAIService adaptador de LLMService sobre la Responses API del SDK oficial de OpenAI.
type OpenAIService struct {
	client       *openai.Client
	configured   bool
	defaultModel string
}

// NewOpenAIService construye el adaptador. baseURL vacío = endpoint público de OpenAI;
// sirve también para servidores compatibles (vLLM, LM Studio).
func NewOpenAIService(apiKey, baseURL, defaultModel string) *OpenAIService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIService{
		client:       &client,
		configured:   apiKey != "",
		defaultModel: pick(defaultModel, string(shared.ChatModelGPT4oMini)),
	}
}

// Ask envía el prompt como entrada de texto y devuelve OutputText.
func (s *OpenAIService) Ask(ctx context.Context, prompt, model string, opts ports.GenerateOptions) (string, error) {
	if !s.configured {
		return "", fmt.Errorf("AI: OPENAI_API_KEY: %w", domain.ErrLLMNotConfigured)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(pick(model, s.defaultModel)),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*opts.MaxTokens))
	}

	resp, err := s.client.Responses.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: openai responses: %w", err)
	}

	content := resp.OutputText()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("AI: openai: %w", domain.ErrLLMEmptyResponse)
	}
	return content, nil
}

// Package bootstrap arma el asistente a partir de la configuración; lo comparten cmd/api y cmd/assistant.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/invoice-assistant/internal/application/chatbot"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
	"github.com/jhoicas/invoice-assistant/internal/infrastructure/ai"
	"github.com/jhoicas/invoice-assistant/internal/infrastructure/metrics"
	"github.com/jhoicas/invoice-assistant/internal/infrastructure/postgres"
	"github.com/jhoicas/invoice-assistant/pkg/config"
	"github.com/jhoicas/invoice-assistant/pkg/logger"
)

// Assistant caso de uso listo para atender turnos más los recursos que hay que cerrar.
type Assistant struct {
	UseCase *chatbot.ChatbotUseCase
	pool    *pgxpool.Pool
}

// Close libera el pool de PostgreSQL.
func (a *Assistant) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Calendar convierte la configuración del tenant en period.CalendarConfig.
func Calendar(t config.TenantConfig) (period.CalendarConfig, error) {
	cal := period.DefaultCalendarConfig()
	if t.TimeZone != "" {
		if _, err := time.LoadLocation(t.TimeZone); err != nil {
			return cal, fmt.Errorf("TENANT_TIMEZONE %q: %w", t.TimeZone, err)
		}
		cal.TimeZoneID = t.TimeZone
	}
	if t.WeekStart != "" {
		wd, err := period.ParseWeekday(t.WeekStart)
		if err != nil {
			return cal, fmt.Errorf("TENANT_WEEK_START: %w", err)
		}
		cal.WeekStart = wd
	}
	if t.FiscalStartMonth != 0 {
		if t.FiscalStartMonth < 1 || t.FiscalStartMonth > 12 {
			return cal, fmt.Errorf("TENANT_FISCAL_START_MONTH fuera de rango: %d", t.FiscalStartMonth)
		}
		cal.FiscalYearStartMonth = time.Month(t.FiscalStartMonth)
	}
	return cal, nil
}

// Options opciones del caso de uso a partir de la configuración.
func Options(cfg *config.Config) (chatbot.Options, error) {
	cal, err := Calendar(cfg.Tenant)
	if err != nil {
		return chatbot.Options{}, err
	}
	return chatbot.Options{
		RouterModel:   cfg.Chatbot.RouterModel,
		SummaryModel:  cfg.Chatbot.SummaryModel,
		RouterTimeout: cfg.Chatbot.RouterTimeout,
		Paraphrase:    cfg.Chatbot.Paraphrase,
		Calendar:      cal,
		Currency:      cfg.Tenant.Currency,
		DefaultLocale: chatbot.ParseLocale(cfg.Tenant.Culture),
	}, nil
}

// LLMConfig traduce la configuración al formato del factory de adaptadores LLM.
func LLMConfig(cfg *config.Config) ai.Config {
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = ai.ProviderOllama
	}
	return ai.Config{
		Provider:        provider,
		DefaultModel:    cfg.Chatbot.RouterModel,
		OllamaURL:       cfg.LLM.OllamaURL,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.LLM.OpenAIBaseURL,
		GeminiAPIKey:    cfg.LLM.GeminiAPIKey,
	}
}

// NewAssistant conecta PostgreSQL y el proveedor LLM y construye el caso de uso.
func NewAssistant(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Assistant, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	llmCfg := LLMConfig(cfg)
	llm, err := ai.NewLLMService(llmCfg)
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	invoices := postgres.NewInvoiceQueryRepository(postgres.NewTxRunner(pool))

	uc := chatbot.NewChatbotUseCase(
		metrics.InstrumentLLM(llm, llmCfg.Provider),
		metrics.InstrumentInvoiceQuery(invoices),
		opts,
		log.Component("chatbot"),
		metrics.NewTurnRecorder(),
	)
	return &Assistant{UseCase: uc, pool: pool}, nil
}

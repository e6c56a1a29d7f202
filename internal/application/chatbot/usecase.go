package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
	"github.com/jhoicas/invoice-assistant/internal/domain/repository"
)

// DefaultRouterTimeout límite de la llamada de ruteo al LLM.
const DefaultRouterTimeout = 15 * time.Second

// Options configuración del asistente. La suministra cmd/ a partir de pkg/config.
type Options struct {
	RouterModel   string
	SummaryModel  string
	RouterTimeout time.Duration
	Paraphrase    bool // reformular la respuesta con el LLM (nunca cambia las cifras)
	Calendar      period.CalendarConfig
	Currency      string
	DefaultLocale Locale
}

// Recorder recibe el resultado de cada turno (métricas). Puede ser nil.
type Recorder interface {
	TurnCompleted(intent, outcome string, elapsed time.Duration)
}

// ChatbotUseCase orquesta un turno: ruteo con el LLM, despacho de la intención y
// composición de la respuesta. Sin estado entre turnos; seguro para uso concurrente.
type ChatbotUseCase struct {
	llm        ports.LLMService
	dispatcher *Dispatcher
	composer   *Composer
	opts       Options
	log        zerolog.Logger
	recorder   Recorder
	now        func() time.Time
}

// NewChatbotUseCase construye el caso de uso inyectando el puerto LLM y el de consulta de facturas.
func NewChatbotUseCase(llm ports.LLMService, invoices repository.InvoiceQuery, opts Options, log zerolog.Logger, rec Recorder) *ChatbotUseCase {
	if opts.RouterTimeout <= 0 {
		opts.RouterTimeout = DefaultRouterTimeout
	}
	if opts.SummaryModel == "" {
		opts.SummaryModel = opts.RouterModel
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = LocaleEnglish
	}
	return &ChatbotUseCase{
		llm:        llm,
		dispatcher: NewDispatcher(invoices, opts.Calendar),
		composer:   NewComposer(opts.Currency, opts.Calendar.Location()),
		opts:       opts,
		log:        log.With().Str("component", "chatbot").Logger(),
		recorder:   rec,
		now:        time.Now,
	}
}

// Ask responde una pregunta en lenguaje natural. Siempre devuelve un texto para el usuario;
// el error solo es distinto de nil cuando el contexto del caller fue cancelado.
func (uc *ChatbotUseCase) Ask(ctx context.Context, question string) (string, error) {
	start := time.Now()
	question = strings.TrimSpace(question)
	lang := DetectLocale(question, uc.opts.DefaultLocale)
	log := uc.log.With().Str("turn_id", uuid.NewString()).Str("locale", string(lang)).Logger()

	if question == "" {
		return uc.finish(log, Outcome{Kind: OutcomeUnknownIntent}, lang, start), nil
	}

	now := uc.now()
	out, err := uc.turn(ctx, log, question, now)
	if err != nil {
		log.Debug().Err(err).Msg("turno cancelado")
		return "", err
	}

	answer := uc.finish(log, out, lang, start)
	if uc.opts.Paraphrase && out.Kind == OutcomeAnswer {
		if rephrased, ok := uc.paraphrase(ctx, log, question, answer, lang); ok {
			return rephrased, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// turn Start → AcquireRouterIntent → ValidateIntent → {Clarify | Dispatch}.
func (uc *ChatbotUseCase) turn(ctx context.Context, log zerolog.Logger, question string, now time.Time) (Outcome, error) {
	raw, err := uc.route(ctx, question, now)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		log.Warn().Err(err).Msg("router LLM no disponible")
		return Outcome{Kind: OutcomeRouterUnavailable, Cause: err}, nil
	}

	res, ok := DecodeRouterResult(raw)
	if !ok {
		log.Warn().Str("raw", truncate(raw, 300)).Msg("salida del router malformada")
	}
	decision := Interpret(res, ok)
	if !decision.Dispatch {
		return decision.Outcome, nil
	}

	log.Debug().Str("intent", string(decision.Intent)).Float64("confidence", res.Confidence).Msg("intención reconocida")
	return uc.dispatcher.Dispatch(ctx, decision.Intent, decision.Params, now)
}

// route llamada al LLM con temperatura 0 y timeout propio.
func (uc *ChatbotUseCase) route(ctx context.Context, question string, now time.Time) (string, error) {
	if uc.llm == nil {
		return "", fmt.Errorf("chatbot: %w", domain.ErrLLMNotConfigured)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.opts.RouterTimeout)
	defer cancel()

	return uc.llm.Ask(ctx, buildRouterPrompt(question, now.In(uc.opts.Calendar.Location())), uc.opts.RouterModel, ports.GenerateOptions{
		Temperature: ports.Float(0),
		MaxTokens:   ports.Int(256),
	})
}

// paraphrase paso opcional; ante cualquier fallo se usa la frase determinista.
func (uc *ChatbotUseCase) paraphrase(ctx context.Context, log zerolog.Logger, question, answer string, lang Locale) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, uc.opts.RouterTimeout)
	defer cancel()

	out, err := uc.llm.Ask(ctx, buildParaphrasePrompt(question, answer, lang), uc.opts.SummaryModel, ports.GenerateOptions{
		Temperature: ports.Float(0.2),
		MaxTokens:   ports.Int(200),
	})
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		log.Debug().Err(err).Msg("paráfrasis descartada")
		return "", false
	}
	return out, true
}

func (uc *ChatbotUseCase) finish(log zerolog.Logger, out Outcome, lang Locale, start time.Time) string {
	answer := uc.composer.Compose(out, lang)
	elapsed := time.Since(start)

	var ev *zerolog.Event
	switch out.Kind {
	case OutcomeRetrievalFailure:
		ev = log.Error().Err(out.Cause)
	case OutcomeRouterUnavailable:
		ev = log.Warn().Err(out.Cause)
	case OutcomeNotFound:
		ev = log.Debug()
	default:
		ev = log.Info()
	}
	ev.Str("intent", string(out.Intent)).
		Str("outcome", out.Kind.String()).
		Dur("elapsed", elapsed).
		Msg("turno del asistente completado")

	if uc.recorder != nil {
		uc.recorder.TurnCompleted(string(out.Intent), out.Kind.String(), elapsed)
	}
	return answer
}

// truncate corta s a n runas.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

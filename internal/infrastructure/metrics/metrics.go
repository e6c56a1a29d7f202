// Package metrics instrumenta el asistente con Prometheus (registro por defecto, expuesto en /metrics).
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/jhoicas/invoice-assistant/internal/domain/repository"
)

const namespace = "invoice_assistant"

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chatbot_turns_total",
		Help:      "Turnos del asistente por intención y resultado.",
	}, []string{"intent", "outcome"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chatbot_turn_duration_seconds",
		Help:      "Duración de un turno completo del asistente.",
		Buckets:   []float64{.25, .5, 1, 2, 5, 10, 30, 60},
	})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Duración de las llamadas al proveedor LLM.",
		Buckets:   []float64{.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider", "status"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "invoice_query_duration_seconds",
		Help:      "Duración de las consultas de facturas.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TurnRecorder registra el resultado de cada turno del asistente.
type TurnRecorder struct{}

// NewTurnRecorder construye el recorder.
func NewTurnRecorder() *TurnRecorder { return &TurnRecorder{} }

// TurnCompleted incrementa el contador por intención/resultado y observa la duración.
func (TurnRecorder) TurnCompleted(intent, outcome string, elapsed time.Duration) {
	if intent == "" {
		intent = "none"
	}
	turnsTotal.WithLabelValues(intent, outcome).Inc()
	turnDuration.Observe(elapsed.Seconds())
}

type instrumentedLLM struct {
	next     ports.LLMService
	provider string
}

var _ ports.LLMService = (*instrumentedLLM)(nil)

// InstrumentLLM envuelve un proveedor LLM midiendo la duración de cada llamada.
func InstrumentLLM(next ports.LLMService, provider string) ports.LLMService {
	return &instrumentedLLM{next: next, provider: provider}
}

func (l *instrumentedLLM) Ask(ctx context.Context, prompt, model string, opts ports.GenerateOptions) (string, error) {
	start := time.Now()
	out, err := l.next.Ask(ctx, prompt, model, opts)
	llmDuration.WithLabelValues(l.provider, status(err)).Observe(time.Since(start).Seconds())
	return out, err
}

type instrumentedQuery struct {
	next repository.InvoiceQuery
}

var _ repository.InvoiceQuery = (*instrumentedQuery)(nil)

// InstrumentInvoiceQuery envuelve el puerto de consulta de facturas midiendo su duración.
func InstrumentInvoiceQuery(next repository.InvoiceQuery) repository.InvoiceQuery {
	return &instrumentedQuery{next: next}
}

func (q *instrumentedQuery) Query(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	start := time.Now()
	out, err := q.next.Query(ctx, filter)
	queryDuration.WithLabelValues(status(err)).Observe(time.Since(start).Seconds())
	return out, err
}

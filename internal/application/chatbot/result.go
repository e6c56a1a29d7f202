package chatbot

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
)

// OutcomeKind clasificación del resultado de un turno. Todas las etapas (router, despacho,
// composición) se comunican con este tipo; ningún fallo esperado viaja como error.
type OutcomeKind int

const (
	OutcomeAnswer OutcomeKind = iota
	OutcomeRouterUnavailable
	OutcomeRouterMalformed
	OutcomeClarification
	OutcomeUnknownIntent
	OutcomeMissingParameter
	OutcomeNotFound
	OutcomeRetrievalFailure
)

var outcomeNames = [...]string{
	OutcomeAnswer:            "answer",
	OutcomeRouterUnavailable: "router_unavailable",
	OutcomeRouterMalformed:   "router_malformed",
	OutcomeClarification:     "clarification",
	OutcomeUnknownIntent:     "unknown_intent",
	OutcomeMissingParameter:  "missing_parameter",
	OutcomeNotFound:          "not_found",
	OutcomeRetrievalFailure:  "retrieval_failure",
}

// String nombre estable usado en logs y etiquetas de métricas.
func (k OutcomeKind) String() string {
	if int(k) < 0 || int(k) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[k]
}

// MissingPeriods concepto faltante de CompareTotals (requiere dos períodos).
const MissingPeriods = "periods"

// Outcome resultado uniforme de un turno.
type Outcome struct {
	Kind          OutcomeKind
	Intent        Intent
	Missing       string // ParamPeriod, ParamInvoiceNumber o MissingPeriods
	Clarification string // texto del router, se muestra tal cual
	Result        any    // uno de los *Result de abajo cuando Kind es Answer o NotFound
	Cause         error  // causa interna; solo para logs, nunca se muestra
}

// CountResult resultado de CountInPeriod.
type CountResult struct {
	Period period.Range
	Count  int
}

// TotalResult resultado de TotalValueInPeriod y de cada lado de CompareTotals.
type TotalResult struct {
	Period period.Range
	Count  int
	Total  decimal.Decimal
}

// SummaryResult resultado de InvoiceSummaryByNumber. Invoice es nil si no existe.
type SummaryResult struct {
	Number  string
	Invoice *entity.Invoice
}

// Scope filtros opcionales aplicados a intenciones de cartera.
type Scope struct {
	Customer string
	Period   *period.Range
}

// BalanceResult resultado de OverdueInvoices y OutstandingBalance.
type BalanceResult struct {
	Scope  Scope
	Count  int
	Amount decimal.Decimal
}

// AgingBand tramo de antigüedad de facturas vencidas.
type AgingBand struct {
	MinDays int
	MaxDays int // -1 = sin límite
	Count   int
	Amount  decimal.Decimal
}

// AgingResult resultado de AgingBuckets: siempre 4 tramos (0-30, 31-60, 61-90, 90+).
type AgingResult struct {
	Scope Scope
	Bands []AgingBand
}

// Total número de facturas vencidas en todos los tramos.
func (a AgingResult) Total() int {
	n := 0
	for _, b := range a.Bands {
		n += b.Count
	}
	return n
}

// CustomerTotal total facturado a un cliente.
type CustomerTotal struct {
	Name  string
	Total decimal.Decimal
}

// TopCustomersResult resultado de TopCustomers.
type TopCustomersResult struct {
	Period    period.Range
	N         int
	Customers []CustomerTotal
}

// CompareResult resultado de CompareTotals. Change es nil cuando el total A es cero
// (variación porcentual no aplicable).
type CompareResult struct {
	A      TotalResult
	B      TotalResult
	Change *decimal.Decimal
}

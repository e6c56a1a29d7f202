package chatbot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
	"github.com/jhoicas/invoice-assistant/internal/domain/repository"
)

// DefaultTopN número de clientes cuando topN falta o no es un entero positivo.
const DefaultTopN = 5

// UnknownCustomer agrupa las facturas sin nombre de cliente.
const UnknownCustomer = "Unknown"

type handlerFunc func(ctx context.Context, p Params, now time.Time) (Outcome, error)

// Dispatcher ejecuta una intención contra el puerto de consulta de facturas.
// Sin estado entre llamadas; seguro para uso concurrente.
type Dispatcher struct {
	invoices repository.InvoiceQuery
	calendar period.CalendarConfig
	handlers map[Intent]handlerFunc
}

// NewDispatcher crea el dispatcher con la configuración de calendario del tenant.
func NewDispatcher(invoices repository.InvoiceQuery, cal period.CalendarConfig) *Dispatcher {
	d := &Dispatcher{invoices: invoices, calendar: cal}
	d.handlers = map[Intent]handlerFunc{
		IntentCountInPeriod:          d.countInPeriod,
		IntentTotalValueInPeriod:     d.totalValueInPeriod,
		IntentInvoiceSummaryByNumber: d.invoiceSummary,
		IntentOverdueInvoices:        d.overdueInvoices,
		IntentOutstandingBalance:     d.outstandingBalance,
		IntentAgingBuckets:           d.agingBuckets,
		IntentTopCustomers:           d.topCustomers,
		IntentCompareTotals:          d.compareTotals,
	}
	return d
}

// Dispatch valida los parámetros obligatorios y ejecuta la intención.
// Solo devuelve error si el contexto fue cancelado; cualquier otro fallo de la consulta
// (incluido un panic) se convierte en OutcomeRetrievalFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent, p Params, now time.Time) (out Outcome, err error) {
	spec, ok := intent.Spec()
	handler, hasHandler := d.handlers[intent]
	if !ok || !hasHandler {
		return Outcome{Kind: OutcomeUnknownIntent, Intent: intent}, nil
	}
	for _, name := range spec.Required {
		if p.Get(name) == "" {
			return Outcome{Kind: OutcomeMissingParameter, Intent: intent, Missing: missingConcept(intent, name)}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Kind: OutcomeRetrievalFailure, Intent: intent, Cause: fmt.Errorf("panic en consulta: %v", r)}
			err = nil
		}
	}()

	out, err = handler(ctx, p, now)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		return Outcome{Kind: OutcomeRetrievalFailure, Intent: intent, Cause: err}, nil
	}
	out.Intent = intent
	return out, nil
}

func missingConcept(intent Intent, param string) string {
	if intent == IntentCompareTotals {
		return MissingPeriods
	}
	return param
}

func (d *Dispatcher) resolve(phrase string, now time.Time) period.Range {
	return period.Resolve(phrase, d.calendar, now)
}

// optionalPeriod resuelve el período solo si viene informado.
func (d *Dispatcher) optionalPeriod(p Params, now time.Time) *period.Range {
	phrase := p.Get(ParamPeriod)
	if phrase == "" {
		return nil
	}
	r := d.resolve(phrase, now)
	return &r
}

func issuedIn(r period.Range) repository.InvoiceFilter {
	from, to := r.Start, r.End
	return repository.InvoiceFilter{From: &from, To: &to}
}

// queryIssuedIn consulta las facturas emitidas en r y vuelve a aplicar el rango en memoria.
func (d *Dispatcher) queryIssuedIn(ctx context.Context, r period.Range) ([]*entity.Invoice, error) {
	invoices, err := d.invoices.Query(ctx, issuedIn(r))
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv != nil && r.Contains(inv.IssueDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (d *Dispatcher) totalIn(ctx context.Context, r period.Range) (TotalResult, error) {
	invoices, err := d.queryIssuedIn(ctx, r)
	if err != nil {
		return TotalResult{}, err
	}
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.TotalAmount)
	}
	return TotalResult{Period: r, Count: len(invoices), Total: total}, nil
}

func (d *Dispatcher) countInPeriod(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	r := d.resolve(p.Get(ParamPeriod), now)
	invoices, err := d.queryIssuedIn(ctx, r)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeAnswer, Result: CountResult{Period: r, Count: len(invoices)}}, nil
}

func (d *Dispatcher) totalValueInPeriod(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	res, err := d.totalIn(ctx, d.resolve(p.Get(ParamPeriod), now))
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeAnswer, Result: res}, nil
}

func (d *Dispatcher) invoiceSummary(ctx context.Context, p Params, _ time.Time) (Outcome, error) {
	number := p.Get(ParamInvoiceNumber)
	invoices, err := d.invoices.Query(ctx, repository.InvoiceFilter{InvoiceNumber: number, WithDetails: true})
	if err != nil {
		return Outcome{}, err
	}
	var found *entity.Invoice
	for _, inv := range invoices {
		if inv != nil && inv.Number == number {
			found = inv
			break
		}
	}
	if found == nil {
		return Outcome{Kind: OutcomeNotFound, Result: SummaryResult{Number: number}}, nil
	}
	return Outcome{Kind: OutcomeAnswer, Result: SummaryResult{Number: number, Invoice: found}}, nil
}

// portfolio consulta las facturas del alcance (cliente y/o período de emisión opcionales).
func (d *Dispatcher) portfolio(ctx context.Context, p Params, now time.Time, overdueOnly bool) (Scope, []*entity.Invoice, error) {
	scope := Scope{Customer: p.Get(ParamCustomer), Period: d.optionalPeriod(p, now)}
	filter := repository.InvoiceFilter{ClientName: scope.Customer, OverdueOnly: overdueOnly, AsOf: now}
	if scope.Period != nil {
		filter.From, filter.To = &scope.Period.Start, &scope.Period.End
	}
	invoices, err := d.invoices.Query(ctx, filter)
	return scope, invoices, err
}

func (d *Dispatcher) overdueInvoices(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	scope, invoices, err := d.portfolio(ctx, p, now, true)
	if err != nil {
		return Outcome{}, err
	}
	res := BalanceResult{Scope: scope, Amount: decimal.Zero}
	for _, inv := range invoices {
		if !inv.IsOverdue(now) {
			continue
		}
		res.Count++
		res.Amount = res.Amount.Add(inv.Balance())
	}
	return Outcome{Kind: OutcomeAnswer, Result: res}, nil
}

func (d *Dispatcher) outstandingBalance(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	scope, invoices, err := d.portfolio(ctx, p, now, false)
	if err != nil {
		return Outcome{}, err
	}
	res := BalanceResult{Scope: scope, Amount: decimal.Zero}
	for _, inv := range invoices {
		open := inv.OpenBalance()
		if !open.IsPositive() {
			continue
		}
		res.Count++
		res.Amount = res.Amount.Add(open)
	}
	return Outcome{Kind: OutcomeAnswer, Result: res}, nil
}

// agingBands límites inclusivos de los tramos; -1 = sin límite superior.
var agingBands = [][2]int{{0, 30}, {31, 60}, {61, 90}, {91, -1}}

func (d *Dispatcher) agingBuckets(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	scope := Scope{Period: d.optionalPeriod(p, now)}
	filter := repository.InvoiceFilter{OverdueOnly: true, AsOf: now}
	if scope.Period != nil {
		filter.From, filter.To = &scope.Period.Start, &scope.Period.End
	}
	invoices, err := d.invoices.Query(ctx, filter)
	if err != nil {
		return Outcome{}, err
	}
	res := AgingResult{Scope: scope, Bands: make([]AgingBand, len(agingBands))}
	for i, b := range agingBands {
		res.Bands[i] = AgingBand{MinDays: b[0], MaxDays: b[1], Amount: decimal.Zero}
	}
	for _, inv := range invoices {
		if !inv.IsOverdue(now) {
			continue
		}
		i := bandIndex(inv.DaysOverdue(now))
		res.Bands[i].Count++
		res.Bands[i].Amount = res.Bands[i].Amount.Add(inv.Balance())
	}
	return Outcome{Kind: OutcomeAnswer, Result: res}, nil
}

func bandIndex(days int) int {
	for i, b := range agingBands {
		if b[1] < 0 || days <= b[1] {
			return i
		}
	}
	return len(agingBands) - 1
}

func parseTopN(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultTopN
	}
	return n
}

func (d *Dispatcher) topCustomers(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	r := d.resolve(p.Get(ParamPeriod), now)
	n := parseTopN(p.Get(ParamTopN))
	filter := issuedIn(r)
	filter.TopN = n
	invoices, err := d.invoices.Query(ctx, filter)
	if err != nil {
		return Outcome{}, err
	}

	// agrupación en orden de primera aparición para que el desempate sea estable
	index := make(map[string]int)
	var totals []CustomerTotal
	for _, inv := range invoices {
		name := strings.TrimSpace(inv.ClientName)
		if name == "" {
			name = UnknownCustomer
		}
		i, seen := index[name]
		if !seen {
			i = len(totals)
			index[name] = i
			totals = append(totals, CustomerTotal{Name: name, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(inv.TotalAmount)
	}
	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Total.GreaterThan(totals[b].Total)
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return Outcome{Kind: OutcomeAnswer, Result: TopCustomersResult{Period: r, N: n, Customers: totals}}, nil
}

var hundred = decimal.NewFromInt(100)

func (d *Dispatcher) compareTotals(ctx context.Context, p Params, now time.Time) (Outcome, error) {
	a, err := d.totalIn(ctx, d.resolve(p.Get(ParamPeriodA), now))
	if err != nil {
		return Outcome{}, err
	}
	b, err := d.totalIn(ctx, d.resolve(p.Get(ParamPeriodB), now))
	if err != nil {
		return Outcome{}, err
	}
	res := CompareResult{A: a, B: b}
	if !a.Total.IsZero() {
		change := b.Total.Sub(a.Total).Div(a.Total).Mul(hundred)
		res.Change = &change
	}
	return Outcome{Kind: OutcomeAnswer, Result: res}, nil
}

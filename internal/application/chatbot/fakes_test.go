package chatbot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-assistant/internal/application/ports"
	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/jhoicas/invoice-assistant/internal/domain/period"
	"github.com/jhoicas/invoice-assistant/internal/domain/repository"
)

// miércoles 15 de mayo de 2024, 10:00 UTC
var fixedNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

var utcCalendar = period.CalendarConfig{TimeZoneID: "UTC", WeekStart: time.Monday, FiscalYearStartMonth: time.January}

// fakeInvoices implementación en memoria de repository.InvoiceQuery que registra los filtros.
type fakeInvoices struct {
	mu       sync.Mutex
	invoices []*entity.Invoice
	err      error
	panicMsg string
	calls    []repository.InvoiceFilter
}

func (f *fakeInvoices) Query(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filter)
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}

	var out []*entity.Invoice
	for _, inv := range f.invoices {
		if filter.From != nil && inv.IssueDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && inv.IssueDate.After(*filter.To) {
			continue
		}
		if filter.InvoiceNumber != "" && inv.Number != filter.InvoiceNumber {
			continue
		}
		if filter.ClientName != "" && !strings.Contains(strings.ToLower(inv.ClientName), strings.ToLower(filter.ClientName)) {
			continue
		}
		if filter.OverdueOnly && !inv.IsOverdue(filter.AsOf) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeInvoices) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeLLM devuelve respuestas en orden; la última se repite.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	block     bool // espera hasta que el contexto se cancele
	prompts   []string
	opts      []ports.GenerateOptions
}

func (f *fakeLLM) Ask(ctx context.Context, prompt, model string, opts ports.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	n := len(f.prompts)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	if n > len(f.responses) {
		n = len(f.responses)
	}
	return f.responses[n-1], nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleInvoices cartera de prueba alrededor de fixedNow.
func sampleInvoices() []*entity.Invoice {
	return []*entity.Invoice{
		{
			ID: "1", Number: "INV-001", ClientName: "Acme Corp", IssueDate: day(2024, 5, 3),
			DueDate: datePtr(2024, 5, 10), Status: entity.InvoiceStatusUnpaid, Currency: "USD",
			TotalAmount: money("250"), PaidAmount: decimal.Zero,
			Details: []*entity.InvoiceDetail{{ItemSKU: "A"}, {ItemSKU: "B"}, {ItemSKU: "C"}},
		},
		{
			ID: "2", Number: "INV-002", ClientName: "Beta LLC", IssueDate: day(2024, 5, 14),
			DueDate: datePtr(2024, 6, 14), Status: entity.InvoiceStatusPartial,
			TotalAmount: money("300"), PaidAmount: money("100"),
		},
		{
			ID: "3", Number: "INV-003", ClientName: "Acme Corp", IssueDate: day(2024, 4, 2),
			DueDate: datePtr(2024, 4, 12), Status: entity.InvoiceStatusPaid,
			TotalAmount: money("200"), PaidAmount: money("200"),
		},
		{
			ID: "4", Number: "INV-004", ClientName: "Gamma SA", IssueDate: day(2024, 1, 5),
			DueDate: datePtr(2024, 2, 1), Status: entity.InvoiceStatusUnpaid,
			TotalAmount: money("150"), PaidAmount: money("50"),
		},
	}
}

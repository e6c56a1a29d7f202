// Package chatbot contiene el asistente conversacional de facturas: interpretación de la
// salida del router LLM, despacho de intenciones contra el puerto de consulta de facturas
// y composición de respuestas localizadas (inglés/árabe).
package chatbot

import "strings"

// Intent operación de backend que la capa de lenguaje natural puede invocar (conjunto cerrado).
type Intent string

const (
	IntentCountInPeriod          Intent = "CountInPeriod"
	IntentTotalValueInPeriod     Intent = "TotalValueInPeriod"
	IntentInvoiceSummaryByNumber Intent = "InvoiceSummaryByNumber"
	IntentOverdueInvoices        Intent = "OverdueInvoices"
	IntentOutstandingBalance     Intent = "OutstandingBalance"
	IntentAgingBuckets           Intent = "AgingBuckets"
	IntentTopCustomers           Intent = "TopCustomers"
	IntentCompareTotals          Intent = "CompareTotals"
)

// Nombres canónicos de parámetros.
const (
	ParamPeriod        = "period"
	ParamInvoiceNumber = "invoiceNumber"
	ParamCustomer      = "customer"
	ParamTopN          = "topN"
	ParamPeriodA       = "periodA"
	ParamPeriodB       = "periodB"
)

// IntentSpec parámetros obligatorios y opcionales de una intención.
type IntentSpec struct {
	Intent      Intent
	Required    []string
	Optional    []string
	Description string // usada en el prompt del router
}

// intentTable orden estable; también define el orden en que se presentan al modelo.
var intentTable = []IntentSpec{
	{IntentCountInPeriod, []string{ParamPeriod}, nil,
		"NUMBER of invoices issued in a period"},
	{IntentTotalValueInPeriod, []string{ParamPeriod}, nil,
		"TOTAL value/amount of invoices issued in a period"},
	{IntentInvoiceSummaryByNumber, []string{ParamInvoiceNumber}, nil,
		"SUMMARY of one invoice identified by its number"},
	{IntentOverdueInvoices, nil, []string{ParamPeriod, ParamCustomer},
		"overdue (past due, unpaid) invoices, optionally for a period and/or customer"},
	{IntentOutstandingBalance, nil, []string{ParamPeriod, ParamCustomer},
		"outstanding (unpaid) balance, optionally for a period and/or customer"},
	{IntentAgingBuckets, nil, []string{ParamPeriod},
		"aging of overdue invoices in 0-30, 31-60, 61-90, 90+ day bands"},
	{IntentTopCustomers, []string{ParamPeriod}, []string{ParamTopN},
		"top customers by invoiced value in a period (topN defaults to 5)"},
	{IntentCompareTotals, []string{ParamPeriodA, ParamPeriodB}, nil,
		"compare invoice totals between two periods"},
}

// intentNames nombre en minúsculas → intención. Incluye los nombres de función históricos.
var intentNames = func() map[string]Intent {
	m := make(map[string]Intent, len(intentTable)*2)
	for _, s := range intentTable {
		m[strings.ToLower(string(s.Intent))] = s.Intent
	}
	m["getinvoicecount"] = IntentCountInPeriod
	m["gettotalinvoicevalue"] = IntentTotalValueInPeriod
	m["getinvoicesummary"] = IntentInvoiceSummaryByNumber
	m["getoverdueinvoices"] = IntentOverdueInvoices
	m["getoutstandingbalance"] = IntentOutstandingBalance
	m["getagingbuckets"] = IntentAgingBuckets
	m["gettopcustomers"] = IntentTopCustomers
	return m
}()

// ParseIntent reconoce el nombre de función del router sin distinguir mayúsculas.
func ParseIntent(name string) (Intent, bool) {
	in, ok := intentNames[strings.ToLower(strings.TrimSpace(name))]
	return in, ok
}

// Spec devuelve la especificación de parámetros de la intención.
func (i Intent) Spec() (IntentSpec, bool) {
	for _, s := range intentTable {
		if s.Intent == i {
			return s, true
		}
	}
	return IntentSpec{}, false
}

// Intents lista todas las intenciones soportadas en orden estable.
func Intents() []IntentSpec {
	out := make([]IntentSpec, len(intentTable))
	copy(out, intentTable)
	return out
}

// paramAliases nombre alternativo (minúsculas) → nombre canónico (minúsculas).
var paramAliases = map[string]string{
	"theperiod":      "period",
	"invoice_number": "invoicenumber",
	"invoiceno":      "invoicenumber",
	"number":         "invoicenumber",
	"client":         "customer",
	"clientname":     "customer",
	"client_name":    "customer",
	"customername":   "customer",
	"top":            "topn",
	"top_n":          "topn",
	"n":              "topn",
	"limit":          "topn",
	"period_a":       "perioda",
	"period1":        "perioda",
	"period_b":       "periodb",
	"period2":        "periodb",
}

// Params parámetros del router con nombres normalizados (sin distinguir mayúsculas).
// Las claves desconocidas se conservan pero ninguna intención las consulta.
type Params map[string]string

// NewParams normaliza nombres (minúsculas + alias) y recorta valores.
// Si un alias y el nombre canónico vienen juntos, gana el canónico.
func NewParams(raw map[string]string) Params {
	p := make(Params, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, aliased := paramAliases[key]; !aliased {
			p[key] = strings.TrimSpace(v)
		}
	}
	for k, v := range raw {
		canonical, aliased := paramAliases[strings.ToLower(strings.TrimSpace(k))]
		if _, exists := p[canonical]; aliased && !exists {
			p[canonical] = strings.TrimSpace(v)
		}
	}
	return p
}

// Get devuelve el valor del parámetro o "" si falta.
func (p Params) Get(name string) string {
	return p[strings.ToLower(name)]
}

package chatbot

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/invoice-assistant/internal/domain/period"
)

type msgKey string

const (
	msgCount            msgKey = "count"
	msgCountNone        msgKey = "count.none"
	msgTotal            msgKey = "total"
	msgTotalNone        msgKey = "total.none"
	msgSummary          msgKey = "summary"
	msgNotFound         msgKey = "summary.not_found"
	msgOverdue          msgKey = "overdue"
	msgOverdueNone      msgKey = "overdue.none"
	msgBalance          msgKey = "balance"
	msgBalanceNone      msgKey = "balance.none"
	msgAging            msgKey = "aging"
	msgTop              msgKey = "top"
	msgTopNone          msgKey = "top.none"
	msgCompare          msgKey = "compare"
	msgCompareNA        msgKey = "compare.na"
	msgChangeUp         msgKey = "change.up"
	msgChangeDown       msgKey = "change.down"
	msgChangeNone       msgKey = "change.none"
	msgSpanDay          msgKey = "span.day"
	msgSpanRange        msgKey = "span.range"
	msgScopeCustomer    msgKey = "scope.customer"
	msgScopePeriod      msgKey = "scope.period"
	msgListSep          msgKey = "list.sep"
	msgAskPeriod        msgKey = "ask.period"
	msgAskInvoiceNumber msgKey = "ask.invoice_number"
	msgAskPeriods       msgKey = "ask.periods"
	msgHint             msgKey = "hint"
	msgUnavailable      msgKey = "unavailable"
	msgFailure          msgKey = "failure"
)

// templates tabla (clave, idioma) → formato. Los argumentos son posicionales y cada
// plantilla usa solo los que necesita.
var templates = map[msgKey]map[Locale]string{
	msgCount: {
		LocaleEnglish: "You issued %[1]s %[2]s.",
		LocaleArabic:  "تم إصدار %[1]s %[2]s.",
	},
	msgCountNone: {
		LocaleEnglish: "No invoices were issued %[2]s.",
		LocaleArabic:  "لم يتم إصدار أي فواتير %[2]s.",
	},
	msgTotal: {
		LocaleEnglish: "The total value of %[1]s issued %[2]s is %[3]s.",
		LocaleArabic:  "إجمالي قيمة %[1]s الصادرة %[2]s هو %[3]s.",
	},
	msgTotalNone: {
		LocaleEnglish: "No invoices were issued %[2]s, so there is no value to report.",
		LocaleArabic:  "لم يتم إصدار أي فواتير %[2]s، لذا لا توجد قيمة لعرضها.",
	},
	msgSummary: {
		LocaleEnglish: "Invoice %[1]s was issued on %[2]s to %[3]s for %[4]s with %[5]s and is currently %[6]s.",
		LocaleArabic:  "الفاتورة %[1]s صدرت بتاريخ %[2]s للعميل %[3]s بقيمة %[4]s وتحتوي على %[5]s، وحالتها الحالية %[6]s.",
	},
	msgNotFound: {
		LocaleEnglish: "Invoice %[1]s was not found.",
		LocaleArabic:  "لم يتم العثور على الفاتورة %[1]s.",
	},
	msgOverdue: {
		LocaleEnglish: "Overdue invoices%[3]s: %[1]s with %[2]s outstanding.",
		LocaleArabic:  "الفواتير المتأخرة%[3]s: %[1]s بإجمالي مستحق %[2]s.",
	},
	msgOverdueNone: {
		LocaleEnglish: "No overdue invoices were found%[3]s.",
		LocaleArabic:  "لا توجد فواتير متأخرة%[3]s.",
	},
	msgBalance: {
		LocaleEnglish: "The outstanding balance%[3]s is %[2]s across %[1]s.",
		LocaleArabic:  "الرصيد المستحق%[3]s هو %[2]s موزعاً على %[1]s.",
	},
	msgBalanceNone: {
		LocaleEnglish: "No outstanding balance was found%[3]s.",
		LocaleArabic:  "لا يوجد رصيد مستحق%[3]s.",
	},
	msgAging: {
		LocaleEnglish: "Overdue invoices by age%[5]s: 0-30 days: %[1]s, 31-60 days: %[2]s, 61-90 days: %[3]s, over 90 days: %[4]s.",
		LocaleArabic:  "أعمار الفواتير المتأخرة%[5]s: ٠-٣٠ يوماً: %[1]s، ٣١-٦٠ يوماً: %[2]s، ٦١-٩٠ يوماً: %[3]s، أكثر من ٩٠ يوماً: %[4]s.",
	},
	msgTop: {
		LocaleEnglish: "Top customers by invoiced value %[1]s: %[2]s.",
		LocaleArabic:  "أعلى العملاء من حيث قيمة الفواتير %[1]s: %[2]s.",
	},
	msgTopNone: {
		LocaleEnglish: "No customer invoices were found %[1]s.",
		LocaleArabic:  "لا توجد فواتير عملاء %[1]s.",
	},
	msgCompare: {
		LocaleEnglish: "Invoice totals were %[1]s %[2]s and %[3]s %[4]s, %[5]s.",
		LocaleArabic:  "بلغ إجمالي الفواتير %[1]s %[2]s و%[3]s %[4]s، %[5]s.",
	},
	msgCompareNA: {
		LocaleEnglish: "Invoice totals were %[1]s %[2]s and %[3]s %[4]s; the percent change is not applicable because the first total is zero.",
		LocaleArabic:  "بلغ إجمالي الفواتير %[1]s %[2]s و%[3]s %[4]s؛ نسبة التغير غير قابلة للتطبيق لأن إجمالي الفترة الأولى صفر.",
	},
	msgChangeUp: {
		LocaleEnglish: "an increase of %[1]s",
		LocaleArabic:  "بزيادة قدرها %[1]s",
	},
	msgChangeDown: {
		LocaleEnglish: "a decrease of %[1]s",
		LocaleArabic:  "بانخفاض قدره %[1]s",
	},
	msgChangeNone: {
		LocaleEnglish: "with no change",
		LocaleArabic:  "دون تغيير",
	},
	msgSpanDay: {
		LocaleEnglish: "on %[1]s",
		LocaleArabic:  "في %[1]s",
	},
	msgSpanRange: {
		LocaleEnglish: "from %[1]s to %[2]s",
		LocaleArabic:  "من %[1]s إلى %[2]s",
	},
	msgScopeCustomer: {
		LocaleEnglish: " for %[1]s",
		LocaleArabic:  " للعميل %[1]s",
	},
	msgScopePeriod: {
		LocaleEnglish: " issued %[1]s",
		LocaleArabic:  " الصادرة %[1]s",
	},
	msgListSep: {
		LocaleEnglish: ", ",
		LocaleArabic:  "، ",
	},
	msgAskPeriod: {
		LocaleEnglish: "Please specify the period you are asking about (e.g., 'last week', 'this month', 'in June 2024').",
		LocaleArabic:  "يرجى تحديد الفترة التي تسأل عنها (مثل 'الأسبوع الماضي' أو 'هذا الشهر' أو 'في يونيو 2024').",
	},
	msgAskInvoiceNumber: {
		LocaleEnglish: "Please specify the invoice number you are asking about.",
		LocaleArabic:  "يرجى تحديد رقم الفاتورة التي تسأل عنها.",
	},
	msgAskPeriods: {
		LocaleEnglish: "Please specify both periods you want to compare (e.g., 'last month' and 'this month').",
		LocaleArabic:  "يرجى تحديد الفترتين اللتين تريد المقارنة بينهما (مثل 'الشهر الماضي' و'هذا الشهر').",
	},
	msgHint: {
		LocaleEnglish: "I'm not sure how to answer that. Please ask about invoice counts, totals, summaries, overdue invoices, outstanding balances, aging, top customers or period comparisons.",
		LocaleArabic:  "لست متأكداً من كيفية الإجابة على ذلك. يمكنك السؤال عن عدد الفواتير أو إجمالي قيمتها أو ملخص فاتورة أو الفواتير المتأخرة أو الرصيد المستحق أو أعمار الديون أو أفضل العملاء أو المقارنة بين فترتين.",
	},
	msgUnavailable: {
		LocaleEnglish: "The assistant is temporarily unavailable. Please try again in a moment.",
		LocaleArabic:  "المساعد غير متاح مؤقتاً. يرجى المحاولة مرة أخرى بعد قليل.",
	},
	msgFailure: {
		LocaleEnglish: "Something went wrong while retrieving invoice data. Please try again later.",
		LocaleArabic:  "حدث خطأ أثناء جلب بيانات الفواتير. يرجى المحاولة لاحقاً.",
	},
}

// Composer convierte un Outcome en una frase localizada. Es una función pura:
// no hace I/O y no toca la salida del modelo salvo la aclaración del router.
type Composer struct {
	currency string
	loc      *time.Location
}

// NewComposer currency es la moneda del tenant; loc la zona para mostrar fechas.
func NewComposer(currency string, loc *time.Location) *Composer {
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{currency: strings.ToUpper(strings.TrimSpace(currency)), loc: loc}
}

func render(key msgKey, lang Locale, args ...any) string {
	byLang := templates[key]
	tpl, ok := byLang[lang]
	if !ok {
		tpl = byLang[LocaleEnglish]
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// Compose texto final del turno.
func (c *Composer) Compose(o Outcome, lang Locale) string {
	f := newFormatter(lang, c.loc)
	switch o.Kind {
	case OutcomeAnswer, OutcomeNotFound:
		if s, ok := c.composeResult(f, o); ok {
			return s
		}
		return render(msgFailure, lang)
	case OutcomeClarification:
		return o.Clarification
	case OutcomeMissingParameter:
		switch o.Missing {
		case ParamInvoiceNumber:
			return render(msgAskInvoiceNumber, lang)
		case MissingPeriods, ParamPeriodA, ParamPeriodB:
			return render(msgAskPeriods, lang)
		default:
			return render(msgAskPeriod, lang)
		}
	case OutcomeRouterUnavailable:
		return render(msgUnavailable, lang)
	case OutcomeRetrievalFailure:
		return render(msgFailure, lang)
	default:
		return render(msgHint, lang)
	}
}

func (c *Composer) composeResult(f formatter, o Outcome) (string, bool) {
	lang := f.lang
	switch r := o.Result.(type) {
	case CountResult:
		key := msgCount
		if r.Count == 0 {
			key = msgCountNone
		}
		return render(key, lang, f.invoices(r.Count), c.span(f, r.Period)), true

	case TotalResult:
		key := msgTotal
		if r.Count == 0 {
			key = msgTotalNone
		}
		return render(key, lang, f.invoices(r.Count), c.span(f, r.Period), f.money(r.Total, c.currency)), true

	case SummaryResult:
		if r.Invoice == nil {
			return render(msgNotFound, lang, r.Number), true
		}
		inv := r.Invoice
		currency := c.currency
		if strings.TrimSpace(inv.Currency) != "" {
			currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
		}
		return render(msgSummary, lang,
			inv.Number, f.date(inv.IssueDate), inv.ClientName,
			f.money(inv.TotalAmount, currency), f.items(len(inv.Details)), f.status(inv.Status)), true

	case BalanceResult:
		key, none := msgBalance, msgBalanceNone
		if o.Intent == IntentOverdueInvoices {
			key, none = msgOverdue, msgOverdueNone
		}
		if r.Count == 0 {
			key = none
		}
		return render(key, lang, f.invoices(r.Count), f.money(r.Amount, c.currency), c.scope(f, r.Scope)), true

	case AgingResult:
		if r.Total() == 0 || len(r.Bands) < 4 {
			return render(msgOverdueNone, lang, nil, nil, c.scope(f, r.Scope)), true
		}
		return render(msgAging, lang,
			f.number(r.Bands[0].Count), f.number(r.Bands[1].Count),
			f.number(r.Bands[2].Count), f.number(r.Bands[3].Count), c.scope(f, r.Scope)), true

	case TopCustomersResult:
		if len(r.Customers) == 0 {
			return render(msgTopNone, lang, c.span(f, r.Period)), true
		}
		parts := make([]string, len(r.Customers))
		for i, ct := range r.Customers {
			name := ct.Name
			if name == UnknownCustomer && lang == LocaleArabic {
				name = "عميل غير معروف"
			}
			parts[i] = fmt.Sprintf("%s. %s (%s)", f.number(i+1), name, f.money(ct.Total, c.currency))
		}
		return render(msgTop, lang, c.span(f, r.Period), strings.Join(parts, render(msgListSep, lang))), true

	case CompareResult:
		a, b := f.money(r.A.Total, c.currency), f.money(r.B.Total, c.currency)
		spanA, spanB := c.span(f, r.A.Period), c.span(f, r.B.Period)
		if r.Change == nil {
			return render(msgCompareNA, lang, a, spanA, b, spanB), true
		}
		var change string
		switch {
		case r.Change.IsPositive():
			change = render(msgChangeUp, lang, f.percent(*r.Change))
		case r.Change.IsNegative():
			change = render(msgChangeDown, lang, f.percent(*r.Change))
		default:
			change = render(msgChangeNone, lang)
		}
		return render(msgCompare, lang, a, spanA, b, spanB, change), true
	}
	return "", false
}

// span "on <date>" para un solo día local, "from <date> to <date>" en otro caso.
func (c *Composer) span(f formatter, r period.Range) string {
	if sameLocalDay(r.Start, r.End, c.loc) {
		return render(msgSpanDay, f.lang, f.date(r.Start))
	}
	return render(msgSpanRange, f.lang, f.date(r.Start), f.date(r.End))
}

func (c *Composer) scope(f formatter, s Scope) string {
	var sb strings.Builder
	if s.Customer != "" {
		sb.WriteString(render(msgScopeCustomer, f.lang, s.Customer))
	}
	if s.Period != nil {
		sb.WriteString(render(msgScopePeriod, f.lang, c.span(f, *s.Period)))
	}
	return sb.String()
}

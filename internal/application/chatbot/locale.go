package chatbot

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale idioma de la respuesta.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

// ParseLocale interpreta una cultura BCP 47 ("en-US", "ar-EG"). Cualquier idioma
// que no sea árabe se responde en inglés.
func ParseLocale(culture string) Locale {
	tag, err := language.Parse(strings.TrimSpace(culture))
	if err != nil {
		return LocaleEnglish
	}
	if base, _ := tag.Base(); base.String() == "ar" {
		return LocaleArabic
	}
	return LocaleEnglish
}

// DetectLocale árabe si el texto contiene alguna letra árabe; si no, el idioma por defecto.
func DetectLocale(text string, fallback Locale) Locale {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r) {
			return LocaleArabic
		}
	}
	if fallback == "" {
		return LocaleEnglish
	}
	return fallback
}

var arabicMonthNames = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// pluralForms formas de un sustantivo contable en árabe.
type pluralForms struct {
	one  string // "فاتورة واحدة"
	two  string // "فاتورتان"
	few  string // 3-10: "فواتير"
	many string // 11+: "فاتورة"
}

// formatter formateo de cifras, dinero y fechas para un idioma.
type formatter struct {
	lang    Locale
	printer *message.Printer
	loc     *time.Location
}

func newFormatter(lang Locale, loc *time.Location) formatter {
	tag := language.English
	if lang == LocaleArabic {
		tag = language.Arabic
	}
	if loc == nil {
		loc = time.UTC
	}
	return formatter{lang: lang, printer: message.NewPrinter(tag), loc: loc}
}

func (f formatter) number(n int) string {
	return f.printer.Sprintf("%d", n)
}

// maxGroupedUnits límite de la parte entera que se agrupa con el printer (cabe en int64).
var maxGroupedUnits = decimal.New(1, 18)

// money importe con 2 decimales y código de moneda.
func (f formatter) money(d decimal.Decimal, currency string) string {
	amount := f.fixed2(d)
	if f.lang == LocaleArabic {
		return amount + " " + currency
	}
	return currency + " " + amount
}

// fixed2 importe exacto a 2 decimales. Parte entera y céntimos se formatean por separado
// como enteros; el importe nunca pasa por float64.
func (f formatter) fixed2(d decimal.Decimal) string {
	d = d.Round(2)
	if !d.Abs().LessThan(maxGroupedUnits) {
		return d.StringFixed(2)
	}
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Neg()
	}
	units := d.Truncate(0)
	cents := d.Sub(units).Shift(2).IntPart()
	frac := f.printer.Sprintf("%d", cents)
	if cents < 10 {
		frac = f.printer.Sprintf("%d", 0) + frac
	}
	return sign + f.printer.Sprintf("%d", units.IntPart()) + f.decimalSeparator() + frac
}

// decimalSeparator separador decimal del idioma ("." / "٫").
func (f formatter) decimalSeparator() string {
	r := []rune(f.printer.Sprintf("%.1f", 1.5))
	if len(r) < 3 {
		return "."
	}
	return string(r[1 : len(r)-1])
}

func (f formatter) percent(d decimal.Decimal) string {
	return f.printer.Sprintf("%.1f%%", d.Abs().Round(1).InexactFloat64())
}

// date fecha local del tenant: "January 2, 2006" / "2 يناير 2006".
func (f formatter) date(t time.Time) string {
	local := t.In(f.loc)
	if f.lang == LocaleArabic {
		return arabicDigits.Replace(fmt.Sprintf("%d %s %d", local.Day(), arabicMonthNames[local.Month()-1], local.Year()))
	}
	return local.Format("January 2, 2006")
}

func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// count cantidad con su sustantivo, respetando el plural de cada idioma.
func (f formatter) count(n int, singular, plural string, ar pluralForms) string {
	if f.lang != LocaleArabic {
		if n == 1 {
			return "1 " + singular
		}
		return f.number(n) + " " + plural
	}
	switch rem := n % 100; {
	case n == 1:
		return ar.one
	case n == 2:
		return ar.two
	case rem >= 3 && rem <= 10:
		return f.number(n) + " " + ar.few
	default:
		return f.number(n) + " " + ar.many
	}
}

var (
	arInvoices = pluralForms{one: "فاتورة واحدة", two: "فاتورتان", few: "فواتير", many: "فاتورة"}
	arItems    = pluralForms{one: "بند واحد", two: "بندان", few: "بنود", many: "بند"}
)

func (f formatter) invoices(n int) string {
	return f.count(n, "invoice", "invoices", arInvoices)
}

func (f formatter) items(n int) string {
	return f.count(n, "item", "items", arItems)
}

// status estado de pago legible.
func (f formatter) status(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if f.lang == LocaleArabic {
		switch key {
		case "paid":
			return "مدفوعة"
		case "unpaid":
			return "غير مدفوعة"
		case "partial":
			return "مدفوعة جزئياً"
		}
		return s
	}
	switch key {
	case "paid", "unpaid":
		return key
	case "partial":
		return "partially paid"
	}
	return s
}

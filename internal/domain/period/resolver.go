package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// rule par predicado→handler. Las reglas se evalúan en orden y gana la primera que aplica.
type rule struct {
	name  string
	apply func(p string, c *calendar) (Range, bool)
}

// rules cascada de resolución. El orden define la precedencia.
var rules = []rule{
	{"fixed-term", fixedTerm},
	{"extended-term", extendedTerm},
	{"explicit-range", explicitRange},
	{"month-year", monthYear},
	{"quarter", quarterYear},
	{"fiscal-year", fiscalYear},
	{"year", bareYear},
}

// Resolve convierte una frase en un rango de días completos en la zona del tenant, en UTC.
// Nunca falla: si ninguna regla reconoce la frase devuelve el día de hoy.
func Resolve(phrase string, cfg CalendarConfig, now time.Time) Range {
	r, _ := ResolveRule(phrase, cfg, now)
	return r
}

// ResolveRule igual que Resolve pero devuelve además el nombre de la regla aplicada
// ("fallback" si ninguna coincidió). Útil para trazas y para la CLI.
func ResolveRule(phrase string, cfg CalendarConfig, now time.Time) (Range, string) {
	p := normalize(phrase)
	c := newCalendar(cfg, now)
	for _, r := range rules {
		if rg, ok := r.apply(p, c); ok {
			return rg, r.name
		}
	}
	return c.day(c.today), "fallback"
}

var spaces = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	s = norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
	s = digitReplacer.Replace(s)
	return spaces.ReplaceAllString(s, " ")
}

// ── Términos fijos bilingües ──────────────────────────────────────────────────

type fixedKind int

const (
	kindToday fixedKind = iota
	kindYesterday
	kindThisWeek
	kindLastWeek
	kindThisMonth
	kindLastMonth
)

// arabicTerms se buscan dentro de la frase; el orden importa ("الأسبوع الماضي" antes
// que cualquier término más corto que pudiera contenerlo).
var arabicTerms = []struct {
	term string
	kind fixedKind
}{
	{"اليوم", kindToday},
	{"البارحة", kindYesterday},
	{"أمس", kindYesterday},
	{"هذا الأسبوع", kindThisWeek},
	{"هذا الاسبوع", kindThisWeek},
	{"الأسبوع الحالي", kindThisWeek},
	{"الأسبوع الماضي", kindLastWeek},
	{"الاسبوع الماضي", kindLastWeek},
	{"هذا الشهر", kindThisMonth},
	{"الشهر الحالي", kindThisMonth},
	{"الشهر الماضي", kindLastMonth},
}

// englishTerms deben coincidir con la frase completa.
var englishTerms = map[string]fixedKind{
	"today":      kindToday,
	"yesterday":  kindYesterday,
	"this week":  kindThisWeek,
	"last week":  kindLastWeek,
	"this month": kindThisMonth,
	"last month": kindLastMonth,
}

func fixedTerm(p string, c *calendar) (Range, bool) {
	// "من 2024-01-01 إلى اليوم" es un rango, no el término fijo que contiene.
	if _, ok := explicitRange(p, c); ok {
		return Range{}, false
	}
	for _, t := range arabicTerms {
		if strings.Contains(p, t.term) {
			return c.fixed(t.kind), true
		}
	}
	if k, ok := englishTerms[p]; ok {
		return c.fixed(k), true
	}
	return Range{}, false
}

func (c *calendar) fixed(k fixedKind) Range {
	switch k {
	case kindYesterday:
		return c.day(c.today.AddDate(0, 0, -1))
	case kindThisWeek:
		return c.thisWeek()
	case kindLastWeek:
		return c.lastWeek()
	case kindThisMonth:
		return c.thisMonth()
	case kindLastMonth:
		return c.lastMonth()
	default:
		return c.day(c.today)
	}
}

// ── Términos extendidos (inglés) ──────────────────────────────────────────────

var lastNDaysRe = regexp.MustCompile(`^last (7|30|90) days$`)

func extendedTerm(p string, c *calendar) (Range, bool) {
	switch p {
	case "mtd":
		return c.thisMonth(), true
	case "ytd":
		return c.yearToDate(), true
	case "qtd", "this quarter":
		return c.thisQuarter(), true
	case "last quarter":
		return c.lastQuarter(), true
	}
	if m := lastNDaysRe.FindStringSubmatch(p); m != nil {
		n, _ := strconv.Atoi(m[1])
		return c.rolling(n), true
	}
	return Range{}, false
}

// ── Rango explícito ───────────────────────────────────────────────────────────

// La "و" árabe suele ir pegada a la palabra siguiente ("و2024-02-05").
var explicitRangeRe = regexp.MustCompile(`(?:between|from|بين|من)\s+(.+?)(?:\s+(?:and|to|إلى|الى|حتى)\s+|\s+و\s*)(.+)`)

// explicitRange "between X and Y" / "from X to Y". Si alguna fecha no se puede
// interpretar, la regla no aplica y la cascada continúa.
func explicitRange(p string, c *calendar) (Range, bool) {
	m := explicitRangeRe.FindStringSubmatch(p)
	if m == nil {
		return Range{}, false
	}
	from, ok := c.endpoint(m[1])
	if !ok {
		return Range{}, false
	}
	to, ok := c.endpoint(m[2])
	if !ok {
		return Range{}, false
	}
	return c.span(from, to), true
}

// relativeEndpoints extremos de rango relativos a hoy.
var relativeEndpoints = map[string]int{
	"today": 0, "now": 0, "اليوم": 0, "الآن": 0,
	"yesterday": -1, "أمس": -1, "البارحة": -1,
}

// endpoint interpreta un extremo de rango: fecha explícita o today/yesterday.
func (c *calendar) endpoint(text string) (time.Time, bool) {
	text = strings.Trim(text, " .?!؟")
	if off, ok := relativeEndpoints[text]; ok {
		return c.today.AddDate(0, 0, off), true
	}
	return parseDate(text)
}

// ── Mes, trimestre, año fiscal, año ───────────────────────────────────────────

var monthYearRe = regexp.MustCompile(`(?:^|\s)(?:in|في)\s+([a-z]+)\s+(\d{4})(?:\D|$)`)

func monthYear(p string, c *calendar) (Range, bool) {
	m := monthYearRe.FindStringSubmatch(translateArabic(p))
	if m == nil {
		return Range{}, false
	}
	mo, ok := monthByName(m[1])
	if !ok {
		return Range{}, false
	}
	yr, _ := strconv.Atoi(m[2])
	return c.month(yr, mo), true
}

var quarterRe = regexp.MustCompile(`\bq([1-4])\s*(\d{4})\b`)

func quarterYear(p string, c *calendar) (Range, bool) {
	m := quarterRe.FindStringSubmatch(p)
	if m == nil {
		return Range{}, false
	}
	q, _ := strconv.Atoi(m[1])
	yr, _ := strconv.Atoi(m[2])
	return c.quarter(yr, q), true
}

var fiscalRe = regexp.MustCompile(`\bfy\s*(\d{4})\b`)

func fiscalYear(p string, c *calendar) (Range, bool) {
	m := fiscalRe.FindStringSubmatch(p)
	if m == nil {
		return Range{}, false
	}
	yr, _ := strconv.Atoi(m[1])
	return c.fiscalYear(yr), true
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

func bareYear(p string, c *calendar) (Range, bool) {
	m := yearRe.FindStringSubmatch(p)
	if m == nil {
		return Range{}, false
	}
	yr, _ := strconv.Atoi(m[1])
	return c.year(yr), true
}

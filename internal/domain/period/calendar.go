// Package period convierte frases de período en lenguaje natural (inglés y árabe)
// en rangos de fechas exactos, alineados a días completos del calendario del tenant
// y expresados en UTC.
package period

import (
	"fmt"
	"strings"
	"time"
)

// CalendarConfig configuración de calendario del tenant.
// La suministra el caller en cada resolución; nunca se infiere.
type CalendarConfig struct {
	TimeZoneID           string       // IANA, ej. "Africa/Cairo"
	WeekStart            time.Weekday // primer día de la semana
	FiscalYearStartMonth time.Month   // mes de inicio del año fiscal (1-12)
}

// DefaultCalendarConfig devuelve la configuración por defecto: El Cairo, semana desde lunes,
// año fiscal desde enero.
func DefaultCalendarConfig() CalendarConfig {
	return CalendarConfig{
		TimeZoneID:           "Africa/Cairo",
		WeekStart:            time.Monday,
		FiscalYearStartMonth: time.January,
	}
}

// Location carga la zona horaria del tenant. Si el ID no existe en la base tz se usa UTC.
func (c CalendarConfig) Location() *time.Location {
	if c.TimeZoneID == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZoneID)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c CalendarConfig) fiscalStart() time.Month {
	if c.FiscalYearStartMonth < time.January || c.FiscalYearStartMonth > time.December {
		return time.January
	}
	return c.FiscalYearStartMonth
}

// ParseWeekday acepta nombres en inglés ("monday", "Mon") o números 0-6 (0 = domingo).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return time.Weekday(s[0] - '0'), nil
	}
	return time.Sunday, fmt.Errorf("día de semana inválido: %q", s)
}

// Range rango inclusivo [Start, End] en UTC.
// Start es las 00:00:00.000 locales del primer día y End las 23:59:59.999 locales del último.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains indica si t cae dentro del rango (ambos extremos incluidos).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r Range) String() string {
	return r.Start.Format(time.RFC3339Nano) + " → " + r.End.Format(time.RFC3339Nano)
}

// calendar estado de una resolución: zona, config y fecha local de "hoy".
type calendar struct {
	cfg   CalendarConfig
	loc   *time.Location
	today time.Time // fecha civil (medianoche UTC) del día local actual
}

func newCalendar(cfg CalendarConfig, now time.Time) *calendar {
	loc := cfg.Location()
	local := now.In(loc)
	return &calendar{
		cfg:   cfg,
		loc:   loc,
		today: civil(local.Year(), local.Month(), local.Day()),
	}
}

// civil representa una fecha de calendario sin zona (medianoche UTC), apta para AddDate.
func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// span construye el rango de días completos [from, to] en la zona del tenant.
// El offset se recalcula por fecha (time.Date sobre la Location), así los cambios
// de horario de verano entre ambos extremos quedan reflejados.
func (c *calendar) span(from, to time.Time) Range {
	if from.After(to) {
		from, to = to, from
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, c.loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), c.loc)
	return Range{Start: start.UTC(), End: end.UTC()}
}

func (c *calendar) day(d time.Time) Range { return c.span(d, d) }

func (c *calendar) thisWeek() Range {
	delta := (int(c.today.Weekday()) - int(c.cfg.WeekStart) + 7) % 7
	start := c.today.AddDate(0, 0, -delta)
	return c.span(start, start.AddDate(0, 0, 6))
}

func (c *calendar) lastWeek() Range {
	delta := (int(c.today.Weekday()) - int(c.cfg.WeekStart) + 7) % 7
	start := c.today.AddDate(0, 0, -delta-7)
	return c.span(start, start.AddDate(0, 0, 6))
}

func (c *calendar) month(y int, m time.Month) Range {
	first := civil(y, m, 1)
	return c.span(first, first.AddDate(0, 1, -1))
}

func (c *calendar) thisMonth() Range {
	return c.month(c.today.Year(), c.today.Month())
}

func (c *calendar) lastMonth() Range {
	first := civil(c.today.Year(), c.today.Month(), 1).AddDate(0, -1, 0)
	return c.month(first.Year(), first.Month())
}

// quarterOf índice de trimestre calendario (1-4) de un mes.
func quarterOf(m time.Month) int { return (int(m)-1)/3 + 1 }

// quarter rango de un trimestre calendario; siempre 3 meses, sin importar el año fiscal.
func (c *calendar) quarter(y, q int) Range {
	first := civil(y, time.Month(1+(q-1)*3), 1)
	return c.span(first, first.AddDate(0, 3, -1))
}

func (c *calendar) thisQuarter() Range {
	return c.quarter(c.today.Year(), quarterOf(c.today.Month()))
}

func (c *calendar) lastQuarter() Range {
	q, y := quarterOf(c.today.Month())-1, c.today.Year()
	if q == 0 {
		q, y = 4, y-1
	}
	return c.quarter(y, q)
}

func (c *calendar) yearToDate() Range {
	return c.span(civil(c.today.Year(), time.January, 1), c.today)
}

// rolling ventana de n días que termina hoy (incluido).
func (c *calendar) rolling(n int) Range {
	return c.span(c.today.AddDate(0, 0, -(n-1)), c.today)
}

func (c *calendar) fiscalYear(y int) Range {
	first := civil(y, c.cfg.fiscalStart(), 1)
	return c.span(first, first.AddDate(1, 0, -1))
}

func (c *calendar) year(y int) Range {
	return c.span(civil(y, time.January, 1), civil(y, time.December, 31))
}

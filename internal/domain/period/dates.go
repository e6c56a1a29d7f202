package period

import (
	"strings"
	"time"
)

// dateLayouts formatos aceptados para fechas explícitas, en orden de prioridad:
// ISO, numéricos regionales (día primero antes que mes primero) y formas largas.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"1/2/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// digitReplacer normaliza dígitos arábigo-índicos y persas a ASCII, y la coma árabe.
var digitReplacer = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"،", ",",
)

// arabicMonths nombres de mes en árabe (variante egipcia y levantina) → inglés.
var arabicMonths = map[string]string{
	"يناير": "january", "فبراير": "february", "مارس": "march",
	"أبريل": "april", "ابريل": "april", "إبريل": "april",
	"مايو": "may", "يونيو": "june", "يوليو": "july",
	"أغسطس": "august", "اغسطس": "august", "سبتمبر": "september",
	"أكتوبر": "october", "اكتوبر": "october", "نوفمبر": "november", "ديسمبر": "december",

	"كانون الثاني": "january", "شباط": "february", "آذار": "march", "نيسان": "april",
	"أيار": "may", "حزيران": "june", "تموز": "july", "آب": "august",
	"أيلول": "september", "تشرين الأول": "october", "تشرين الثاني": "november",
	"كانون الأول": "december",
}

var englishMonths = func() map[string]time.Month {
	m := make(map[string]time.Month, 24)
	for mo := time.January; mo <= time.December; mo++ {
		name := strings.ToLower(mo.String())
		m[name] = mo
		m[name[:3]] = mo
	}
	m["sept"] = time.September
	return m
}()

// monthByName resuelve un nombre de mes en inglés (completo o abreviado) o en árabe.
func monthByName(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if en, ok := arabicMonths[name]; ok {
		name = en
	}
	m, ok := englishMonths[name]
	return m, ok
}

// translateArabic convierte un texto con convenciones árabes (dígitos, coma, meses)
// a su equivalente invariante para poder aplicar los mismos layouts.
func translateArabic(s string) string {
	fields := strings.Fields(digitReplacer.Replace(s))
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if i+1 < len(fields) {
			pair := fields[i] + " " + strings.TrimSuffix(fields[i+1], ",")
			if en, ok := arabicMonths[pair]; ok {
				out = append(out, en+trailingComma(fields[i+1]))
				i++
				continue
			}
		}
		word := strings.TrimSuffix(fields[i], ",")
		if en, ok := arabicMonths[word]; ok {
			out = append(out, en+trailingComma(fields[i]))
			continue
		}
		out = append(out, fields[i])
	}
	return strings.Join(out, " ")
}

func trailingComma(s string) string {
	if strings.HasSuffix(s, ",") {
		return ","
	}
	return ""
}

// parseDate intenta los layouts primero bajo la convención invariante y luego bajo la árabe.
// Devuelve la fecha civil (sin zona).
func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, candidate := range []string{text, translateArabic(text)} {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return civil(t.Year(), t.Month(), t.Day()), true
			}
		}
	}
	return time.Time{}, false
}

package chatbot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// routerContract forma exacta que se le pide al modelo router.
type routerContract struct {
	Function      string            `json:"function" jsonschema_description:"Name of the backend function to call, or null when the question is not about invoices"`
	Params        map[string]string `json:"params" jsonschema_description:"Parameter values copied from the question, e.g. {\"period\":\"last month\"}"`
	Missing       []string          `json:"missing" jsonschema_description:"Required parameters the question does not provide"`
	Confidence    float64           `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Clarification string            `json:"clarification" jsonschema_description:"Short question to ask the user when parameters are missing, in the user's language"`
}

// routerSchema esquema JSON del contrato, reflejado una sola vez (inmutable).
var routerSchema = func() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	b, err := json.Marshal(reflector.Reflect(&routerContract{}))
	if err != nil {
		return "{}"
	}
	return string(b)
}()

// buildRouterPrompt instrucciones para el modelo router: contrato, funciones disponibles
// y la pregunta. El modelo solo elige función y copia parámetros; no calcula nada.
func buildRouterPrompt(question string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("You route questions about invoices to backend functions.\n")
	sb.WriteString("Reply with ONLY one minified JSON object matching this JSON Schema, no markdown, no extra text:\n")
	sb.WriteString(routerSchema)
	sb.WriteString("\n\nAvailable functions:\n")
	for _, s := range intentTable {
		fmt.Fprintf(&sb, "- %s: %s.", s.Intent, s.Description)
		if len(s.Required) > 0 {
			fmt.Fprintf(&sb, " Required: %s.", strings.Join(s.Required, ", "))
		}
		if len(s.Optional) > 0 {
			fmt.Fprintf(&sb, " Optional: %s.", strings.Join(s.Optional, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nRules:\n")
	sb.WriteString("- Copy period phrases exactly as the user wrote them (e.g. \"last week\", \"in June 2024\", \"الشهر الماضي\", \"في يونيو 2024\"). Never convert them to dates.\n")
	sb.WriteString("- Keep the preposition before a month name (\"in June 2024\", \"في يونيو 2024\"); if the user omitted it, add \"in\" or \"في\".\n")
	sb.WriteString("- If a required parameter is missing, list it in \"missing\" and write a clarification question in the user's language.\n")
	sb.WriteString("- If the question is not about invoices, set \"function\" to null.\n")
	fmt.Fprintf(&sb, "\nToday is %s.\nQuestion: %s\n", now.Format("2006-01-02"), question)
	return sb.String()
}

// buildParaphrasePrompt pide al modelo reformular la respuesta ya calculada sin cambiar cifras.
func buildParaphrasePrompt(question, answer string, lang Locale) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User asked: %s\n", question)
	fmt.Fprintf(&sb, "Data you need to answer is: %s\n", answer)
	sb.WriteString("ONLY reply with one sentence. Keep every number, date and amount exactly as given. Do not add anything else.")
	if lang == LocaleArabic {
		sb.WriteString(" Reply in Arabic.")
	}
	return sb.String()
}

package chatbot

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/xeipuuv/gojsonschema"
)

// RouterResult contrato de salida del router LLM, ya normalizado.
type RouterResult struct {
	Function      string            // "" cuando el modelo devuelve null
	Params        map[string]string // valores escalares convertidos a texto
	Missing       []string
	Confidence    float64
	Clarification string
}

// routerShape esquema tolerante contra el que se valida la salida cruda del modelo
// (claves ya en minúsculas). Más permisivo que el contrato que se le pide al modelo:
// admite null en casi todo y valores escalares de cualquier tipo en params.
var routerShape = map[string]any{
	"type":     "object",
	"required": []any{"function"},
	"properties": map[string]any{
		"function": map[string]any{"type": []any{"string", "null"}},
		"params": map[string]any{
			"type": []any{"object", "null"},
			"additionalProperties": map[string]any{
				"type": []any{"string", "number", "boolean", "null"},
			},
		},
		"missing": map[string]any{
			"type":  []any{"array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"confidence":    map[string]any{"type": []any{"number", "null"}},
		"clarification": map[string]any{"type": []any{"string", "null"}},
	},
}

var routerShapeLoader = gojsonschema.NewGoLoader(routerShape)

// DecodeRouterResult interpreta la salida cruda del router. Tolera bloques markdown,
// texto alrededor del objeto, comentarios, comas finales y claves en cualquier
// capitalización. Nunca falla: ok=false indica salida malformada.
func DecodeRouterResult(raw string) (res RouterResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			res, ok = RouterResult{}, false
		}
	}()

	text := extractJSON(raw)
	if text == "" {
		return RouterResult{}, false
	}
	std, err := hujson.Standardize([]byte(text))
	if err != nil {
		return RouterResult{}, false
	}
	var obj map[string]any
	if err := json.Unmarshal(std, &obj); err != nil || obj == nil {
		return RouterResult{}, false
	}

	doc := make(map[string]any, len(obj))
	for k, v := range obj {
		doc[strings.ToLower(strings.TrimSpace(k))] = v
	}

	result, err := gojsonschema.Validate(routerShapeLoader, gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		return RouterResult{}, false
	}

	res.Function, _ = doc["function"].(string)
	res.Function = strings.TrimSpace(res.Function)
	if params, isMap := doc["params"].(map[string]any); isMap {
		res.Params = make(map[string]string, len(params))
		for k, v := range params {
			if s, has := scalarString(v); has {
				res.Params[k] = s
			}
		}
	}
	if missing, isList := doc["missing"].([]any); isList {
		for _, m := range missing {
			if s, _ := m.(string); strings.TrimSpace(s) != "" {
				res.Missing = append(res.Missing, strings.TrimSpace(s))
			}
		}
	}
	res.Confidence, _ = doc["confidence"].(float64)
	res.Clarification, _ = doc["clarification"].(string)
	res.Clarification = strings.TrimSpace(res.Clarification)
	return res, true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Decision resultado de interpretar la salida del router: despachar una intención
// o responder directamente con el Outcome indicado.
type Decision struct {
	Dispatch bool
	Intent   Intent
	Params   Params
	Outcome  Outcome // válido cuando Dispatch es false
}

// Interpret aplica las reglas de decisión en orden:
//  1. salida malformada, o function null sin parámetros faltantes → sugerencia de capacidades;
//  2. faltan parámetros y hay aclaración → se muestra la aclaración tal cual;
//  3. función desconocida → sugerencia de capacidades;
//  4. en otro caso se despacha (el dispatcher revisa los obligatorios).
func Interpret(res RouterResult, ok bool) Decision {
	if !ok {
		return Decision{Outcome: Outcome{Kind: OutcomeRouterMalformed}}
	}
	if res.Function == "" && len(res.Missing) == 0 {
		return Decision{Outcome: Outcome{Kind: OutcomeUnknownIntent}}
	}
	if len(res.Missing) > 0 && res.Clarification != "" {
		return Decision{Outcome: Outcome{Kind: OutcomeClarification, Clarification: res.Clarification}}
	}
	intent, known := ParseIntent(res.Function)
	if !known {
		return Decision{Outcome: Outcome{Kind: OutcomeUnknownIntent}}
	}
	return Decision{Dispatch: true, Intent: intent, Params: NewParams(res.Params)}
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el primer objeto JSON de un texto libre.
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el bloque { … } más externo.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

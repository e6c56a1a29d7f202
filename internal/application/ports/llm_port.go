package ports

import "context"

// GenerateOptions parámetros opcionales de generación. nil = valor por defecto del proveedor.
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// LLMService define el puerto de salida hacia el servicio de generación de texto.
// Cualquier adaptador (Ollama, Anthropic, OpenAI, mock) debe implementar esta interfaz.
// El asistente lo considera poco fiable: cualquier error, timeout o salida malformada
// se degrada a un mensaje para el usuario.
type LLMService interface {
	// Ask envía el prompt al modelo indicado y devuelve el texto generado.
	// Debe respetar la cancelación del contexto.
	Ask(ctx context.Context, prompt, model string, opts GenerateOptions) (string, error)
}

// Float devuelve un puntero al valor (helper para GenerateOptions).
func Float(v float64) *float64 { return &v }

// Int devuelve un puntero al valor (helper para GenerateOptions).
func Int(v int) *int { return &v }

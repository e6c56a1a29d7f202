package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrLLMNotConfigured   = errors.New("proveedor LLM no configurado")
	ErrLLMEmptyResponse   = errors.New("el modelo devolvió una respuesta vacía")
	ErrUnknownLLMProvider = errors.New("proveedor LLM desconocido")
)

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultHTTPTimeout timeout de red; el caso de uso impone además su propio context.WithTimeout.
const defaultHTTPTimeout = 60 * time.Second

// maxResponseBytes límite de lectura de la respuesta del proveedor.
const maxResponseBytes = 256 * 1024

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// httpStatusError respuesta HTTP distinta de 200.
type httpStatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("AI: %s HTTP %d: %s", e.Provider, e.Status, e.Body)
}

// postJSON serializa payload, hace POST y devuelve el cuerpo crudo de una respuesta 200.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP a %s fallida: %w", provider, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return rawBody, &httpStatusError{Provider: provider, Status: resp.StatusCode, Body: truncate(string(rawBody), 500)}
	}
	return rawBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

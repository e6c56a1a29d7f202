package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-assistant/internal/application/dto"
	apphttp "github.com/jhoicas/invoice-assistant/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/invoice-assistant/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "invoice-assistant-test"
)

type fakeAsker struct {
	mu        sync.Mutex
	answer    string
	err       error
	block     bool
	questions []string
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func buildTestApp(asker apphttp.Asker, secret string, timeout time.Duration) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Chatbot:     asker,
		ServiceName: "invoice-assistant",
		LLMProvider: "ollama",
		JWTSecret:   secret,
		JWTIssuer:   testIssuer,
		TurnTimeout: timeout,
		Log:         zerolog.Nop(),
	})
	return app
}

func postQuestion(t *testing.T, app *fiber.App, body, authHeader string) (*http.Response, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chatbot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestChatbot_ReturnsAnswer(t *testing.T) {
	asker := &fakeAsker{answer: "You issued 2 invoices from May 1, 2024 to May 31, 2024."}
	app := buildTestApp(asker, "", 0)

	resp, body := postQuestion(t, app, `{"question":"  How many invoices this month?  "}`, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, asker.answer, body["answer"])
	assert.Equal(t, []string{"How many invoices this month?"}, asker.questions)
}

func TestChatbot_Validation(t *testing.T) {
	asker := &fakeAsker{answer: "x"}
	app := buildTestApp(asker, "", 0)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"json inválido", `{"question":`, "INVALID_BODY"},
		{"pregunta vacía", `{"question":"   "}`, "VALIDATION"},
		{"pregunta demasiado larga", `{"question":"` + strings.Repeat("a", dto.MaxQuestionLength+1) + `"}`, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postQuestion(t, app, tc.body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, body["code"])
		})
	}
	assert.Empty(t, asker.questions)
}

func TestChatbot_TimeoutReturns408(t *testing.T) {
	app := buildTestApp(&fakeAsker{block: true}, "", 20*time.Millisecond)

	resp, body := postQuestion(t, app, `{"question":"how many invoices today?"}`, "")
	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.Equal(t, "TIMEOUT", body["code"])
}

func TestChatbot_UnexpectedErrorIsGeneric(t *testing.T) {
	app := buildTestApp(&fakeAsker{err: errors.New("pgx: connection reset")}, "", 0)

	resp, body := postQuestion(t, app, `{"question":"how many invoices today?"}`, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", body["code"])
	assert.NotContains(t, body["message"], "pgx")
}

func TestChatbot_ErrorLogCarriesCaller(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Chatbot:   &fakeAsker{err: errors.New("pgx: connection reset")},
		JWTSecret: testJWTSecret,
		JWTIssuer: testIssuer,
		Log:       zerolog.New(&logs),
	})

	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, "user-1", "tenant-eg", time.Hour)
	require.NoError(t, err)
	resp, _ := postQuestion(t, app, `{"question":"hi"}`, "Bearer "+tok)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, logs.String(), `"user_id":"user-1"`)
	assert.Contains(t, logs.String(), `"tenant_id":"tenant-eg"`)
}

func TestChatbot_RequiresTokenWhenSecretSet(t *testing.T) {
	asker := &fakeAsker{answer: "ok"}
	app := buildTestApp(asker, testJWTSecret, 0)

	resp, body := postQuestion(t, app, `{"question":"hi"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", body["code"])

	resp, body = postQuestion(t, app, `{"question":"hi"}`, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	resp, body = postQuestion(t, app, `{"question":"hi"}`, "Bearer token.invalido.aqui")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, "user-1", "tenant-eg", time.Hour)
	require.NoError(t, err)
	resp, body = postQuestion(t, app, `{"question":"hi"}`, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["answer"])
}

func TestAuthMiddleware_ExtractsClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret, testIssuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "tenant_id": apphttp.GetTenantID(c)})
	})

	tok, err := pkgjwt.Generate(testJWTSecret, testIssuer, "user-1", "tenant-eg", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, "tenant-eg", body["tenant_id"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := buildTestApp(&fakeAsker{}, testJWTSecret, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ollama", health.Provider)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaURL)
	assert.Equal(t, 15*time.Second, cfg.Chatbot.RouterTimeout)
	assert.False(t, cfg.Chatbot.Paraphrase)
	assert.Equal(t, "Africa/Cairo", cfg.Tenant.TimeZone)
	assert.Equal(t, "EGP", cfg.Tenant.Currency)
	assert.Equal(t, "monday", cfg.Tenant.WeekStart)
	assert.Equal(t, 1, cfg.Tenant.FiscalStartMonth)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("CHATBOT_ROUTER_TIMEOUT_SECONDS", "30")
	t.Setenv("CHATBOT_PARAPHRASE", "true")
	t.Setenv("TENANT_CURRENCY", "usd")
	t.Setenv("TENANT_FISCAL_START_MONTH", "7")
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.Chatbot.RouterTimeout)
	assert.True(t, cfg.Chatbot.Paraphrase)
	assert.Equal(t, "USD", cfg.Tenant.Currency)
	assert.Equal(t, 7, cfg.Tenant.FiscalStartMonth)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_InvalidFiscalMonth(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TENANT_FISCAL_START_MONTH", "13")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TENANT_FISCAL_START_MONTH")
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "invoices", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/invoices?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}

// chdir mirrors testing.T.Chdir (Go 1.24+): switch to dir and restore the
// previous working directory when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

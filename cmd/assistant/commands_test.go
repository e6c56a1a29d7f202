package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolve_LastMonthCairo(t *testing.T) {
	out, err := runCLI(t, "resolve", "last", "month", "--tz", "Africa/Cairo", "--now", "2024-05-15T10:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "rule:  fixed-term")
	// abril 2024 en El Cairo es UTC+2 (el horario de verano empieza el 26 de abril)
	assert.Contains(t, out, "start: 2024-03-31T22:00:00Z")
	assert.Contains(t, out, "end:   2024-04-30T20:59:59.999Z")
}

func TestResolve_UTCFiscalYear(t *testing.T) {
	out, err := runCLI(t, "resolve", "FY2024", "--tz", "UTC", "--fiscal-month", "7", "--now", "2024-05-15T10:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "rule:  fiscal-year")
}

func TestResolve_Errors(t *testing.T) {
	_, err := runCLI(t, "resolve", "today", "--now", "yesterday")
	assert.Error(t, err)

	_, err = runCLI(t, "resolve", "today", "--week-start", "funday")
	assert.Error(t, err)

	_, err = runCLI(t, "resolve")
	assert.Error(t, err)
}

func TestResolve_UnknownPhraseFallsBackToToday(t *testing.T) {
	out, err := runCLI(t, "resolve", "whenever", "--tz", "UTC", "--now", "2024-05-15T10:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "rule:  fallback")
	assert.Contains(t, out, "start: 2024-05-15T00:00:00Z")
	assert.Contains(t, out, "end:   2024-05-15T23:59:59.999Z")
}

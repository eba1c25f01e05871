package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.SuggestLimit)
	assert.Equal(t, 5, cfg.ReferenceSuggestLimit)
	assert.True(t, cfg.OTelEnabled)
	assert.False(t, cfg.TracingEnabled())
	assert.Empty(t, cfg.Catalog)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	today, err := cfg.TodayDate()
	require.NoError(t, err)
	assert.True(t, today.IsZero())
}

func TestLoadFrom_Values(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"VERBCHECK_LOG_LEVEL":               "debug",
		"VERBCHECK_CATALOG":                 "verbs/core.yaml,verbs/kyc",
		"VERBCHECK_REFERENCES":              "refs.yaml",
		"VERBCHECK_REFDATA_DB":              "refs.db",
		"VERBCHECK_CONTEXT":                 "context.yaml",
		"VERBCHECK_TODAY":                   "2026-03-15",
		"VERBCHECK_SUGGEST_LIMIT":           "1",
		"VERBCHECK_REFERENCE_SUGGEST_LIMIT": "0",
		"VERBCHECK_OTEL_ENDPOINT":           "http://localhost:4318",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"verbs/core.yaml", "verbs/kyc"}, cfg.Catalog)
	assert.Equal(t, "refs.yaml", cfg.References)
	assert.Equal(t, "refs.db", cfg.RefDB)
	assert.Equal(t, "context.yaml", cfg.Context)
	assert.Equal(t, 1, cfg.SuggestLimit)
	assert.Equal(t, 0, cfg.ReferenceSuggestLimit)
	assert.True(t, cfg.TracingEnabled())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	today, err := cfg.TodayDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), today)
}

func TestLoadFrom_TracingDisabled(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"VERBCHECK_OTEL_ENDPOINT": "http://localhost:4318",
		"VERBCHECK_OTEL_ENABLED":  "false",
	})
	require.NoError(t, err)
	assert.False(t, cfg.TracingEnabled())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"level", map[string]string{"VERBCHECK_LOG_LEVEL": "loud"}, "VERBCHECK_LOG_LEVEL"},
		{"today", map[string]string{"VERBCHECK_TODAY": "15.03.2026"}, "VERBCHECK_TODAY: expected YYYY-MM-DD"},
		{"negative limit", map[string]string{"VERBCHECK_SUGGEST_LIMIT": "-1"}, "must not be negative"},
		{"not a number", map[string]string{"VERBCHECK_REFERENCE_SUGGEST_LIMIT": "many"}, "parse env"},
		{"not a bool", map[string]string{"VERBCHECK_OTEL_ENABLED": "perhaps"}, "parse env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("VERBCHECK_LOG_LEVEL", "error")
	t.Setenv("VERBCHECK_CATALOG", "a.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, []string{"a.yaml"}, cfg.Catalog)
}

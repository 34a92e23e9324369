package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveAPIBaseURL(t *testing.T) {
	cases := []struct {
		name        string
		override    string
		environment string
		proxy       string
		want        string
	}{
		{"override wins in development", "https://api.example.com/", EnvDevelopment, "", "https://api.example.com"},
		{"override wins in production", "https://api.example.com", EnvProduction, "http://proxy:8080", "https://api.example.com"},
		{"production uses proxy origin", "", EnvProduction, "http://proxy:8080/", "http://proxy:8080"},
		{"production falls back to default proxy", "", EnvProduction, "", DefaultProxyOrigin},
		{"development uses localhost", "", EnvDevelopment, "http://proxy:8080", DefaultDevelopmentAPIURL},
		{"unknown environment behaves like development", "", "staging", "", DefaultDevelopmentAPIURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveAPIBaseURL(tc.override, tc.environment, tc.proxy))
		})
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultChartCacheTTL, cfg.ChartCacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Mock)
	assert.Equal(t, DefaultDevelopmentAPIURL, cfg.APIBaseURL())
}

func TestFromEnvProduction(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		KeyEnvironment:  "PRODUCTION",
		KeyProxyOrigin:  "http://edge.internal:8080/",
		KeyHTTPTimeout:  "3s",
		KeyRateLimit:    "5",
		KeyRateBurst:    "2",
		KeyMock:         "true",
		KeyLogLevel:     "DEBUG",
		KeySessionIdle:  "1h",
		KeyChartTheme:   "dark",
		KeyManifestPath: "/etc/churnboard/manifest.yaml",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://edge.internal:8080", cfg.APIBaseURL())
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.InDelta(t, 5.0, cfg.RateLimit, 1e-9)
	assert.Equal(t, 2, cfg.RateBurst)
	assert.True(t, cfg.Mock)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.SessionIdle)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{KeyHTTPTimeout: "soon", KeyMock: "maybe"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyHTTPTimeout)
	assert.Contains(t, err.Error(), KeyMock)

	_, err = FromEnv(envMap(map[string]string{KeyEnvironment: "staging"}))
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "churnboard.env")
	require.NoError(t, os.WriteFile(file, []byte(KeyAPIURL+"=http://from-file:9000\n"+KeyAddr+"=:4000\n"), 0o600))
	t.Setenv(KeyAddr, ":5000")
	t.Setenv(KeyAPIURL, "")
	require.NoError(t, os.Unsetenv(KeyAPIURL))

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:9000", cfg.APIBaseURL())
	assert.Equal(t, ":5000", cfg.Addr)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Environment: EnvProduction, LogLevel: "warn"}
	logger := cfg.NewLogger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"service":"churnboard"`)
}

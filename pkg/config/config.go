// Package config builds the dashboard's runtime configuration once at
// process start from the environment and optional .env files.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Environment variable names.
const (
	KeyEnvironment     = "CHURNBOARD_ENV"
	KeyAPIURL          = "CHURNBOARD_API_URL"
	KeyProxyOrigin     = "CHURNBOARD_PROXY_ORIGIN"
	KeyAddr            = "CHURNBOARD_ADDR"
	KeyAPIKey          = "CHURNBOARD_API_KEY"
	KeyHTTPTimeout     = "CHURNBOARD_HTTP_TIMEOUT"
	KeyRateLimit       = "CHURNBOARD_RATE_LIMIT"
	KeyRateBurst       = "CHURNBOARD_RATE_BURST"
	KeyChartTheme      = "CHURNBOARD_CHART_THEME"
	KeyChartAssetsHost = "CHURNBOARD_CHART_ASSETS_HOST"
	KeyChartCacheTTL   = "CHURNBOARD_CHART_CACHE_TTL"
	KeyManifestPath    = "CHURNBOARD_MANIFEST"
	KeySessionIdle     = "CHURNBOARD_SESSION_IDLE"
	KeyLogLevel        = "CHURNBOARD_LOG_LEVEL"
	KeyLogFormat       = "CHURNBOARD_LOG_FORMAT"
	KeyMock            = "CHURNBOARD_MOCK"
)

// Defaults.
const (
	DefaultDevelopmentAPIURL = "http://localhost:8000"
	DefaultProxyOrigin       = "http://127.0.0.1:8080"
	DefaultAddr              = ":3000"
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultChartCacheTTL     = 5 * time.Minute
	DefaultSessionIdle       = 30 * time.Minute
)

// Config is the resolved configuration. Build it with Load or FromEnv and
// treat it as read-only afterwards.
type Config struct {
	Environment     string
	APIURL          string
	ProxyOrigin     string
	Addr            string
	APIKey          string
	HTTPTimeout     time.Duration
	RateLimit       float64
	RateBurst       int
	ChartTheme      string
	ChartAssetsHost string
	ChartCacheTTL   time.Duration
	ManifestPath    string
	SessionIdle     time.Duration
	LogLevel        string
	LogFormat       string
	Mock            bool
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing files are ignored and existing environment
// variables win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: load "+file)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: "+key))
			return fallback
		}
		return d
	}
	number := func(key string, fallback float64) float64 {
		raw := get(key, "")
		if raw == "" {
			return fallback
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: "+key))
			return fallback
		}
		return f
	}
	flag := func(key string) bool {
		raw := get(key, "")
		if raw == "" {
			return false
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: "+key))
		}
		return b
	}

	cfg := Config{
		Environment:     strings.ToLower(get(KeyEnvironment, EnvDevelopment)),
		APIURL:          get(KeyAPIURL, ""),
		ProxyOrigin:     get(KeyProxyOrigin, DefaultProxyOrigin),
		Addr:            get(KeyAddr, DefaultAddr),
		APIKey:          get(KeyAPIKey, ""),
		HTTPTimeout:     duration(KeyHTTPTimeout, DefaultHTTPTimeout),
		RateLimit:       number(KeyRateLimit, 0),
		RateBurst:       int(number(KeyRateBurst, 1)),
		ChartTheme:      get(KeyChartTheme, ""),
		ChartAssetsHost: get(KeyChartAssetsHost, ""),
		ChartCacheTTL:   duration(KeyChartCacheTTL, DefaultChartCacheTTL),
		ManifestPath:    get(KeyManifestPath, ""),
		SessionIdle:     duration(KeySessionIdle, DefaultSessionIdle),
		LogLevel:        strings.ToLower(get(KeyLogLevel, "info")),
		LogFormat:       strings.ToLower(get(KeyLogFormat, "")),
		Mock:            flag(KeyMock),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Environment, validation.Required, validation.In(EnvDevelopment, EnvProduction)),
		validation.Field(&c.ProxyOrigin, validation.Required),
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
		validation.Field(&c.LogFormat, validation.In("console", "json")),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "config: invalid configuration")
	}
	return nil
}

// IsProduction reports whether the production environment is selected.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// APIBaseURL returns the backend origin for this configuration.
func (c Config) APIBaseURL() string {
	return ResolveAPIBaseURL(c.APIURL, c.Environment, c.ProxyOrigin)
}

// ResolveAPIBaseURL picks the backend origin: an explicit override first,
// then the same-origin proxy in production, then the local development
// backend. Trailing slashes are trimmed.
func ResolveAPIBaseURL(override, environment, proxyOrigin string) string {
	base := strings.TrimSpace(override)
	switch {
	case base != "":
	case environment == EnvProduction:
		base = strings.TrimSpace(proxyOrigin)
		if base == "" {
			base = DefaultProxyOrigin
		}
	default:
		base = DefaultDevelopmentAPIURL
	}
	return strings.TrimRight(base, "/")
}

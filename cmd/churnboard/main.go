package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-churnboard/pkg/churnapi"
	"github.com/goliatone/go-churnboard/pkg/config"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/time/rate"
)

type Globals struct {
	EnvFile  []string `name:"env-file" help:"Dotenv files read before the process environment." placeholder:"PATH"`
	APIURL   string   `name:"api-url" help:"Backend base URL. Overrides the environment based default."`
	Env      string   `help:"Runtime environment." enum:",development,production" default:""`
	LogLevel string   `name:"log-level" help:"Log level (trace, debug, info, warn, error)."`
	Mock     bool     `help:"Use built-in demo data instead of the backend."`
	JSON     bool     `help:"Print command output as JSON."`
}

type cli struct {
	Globals

	Serve     serveCmd     `cmd:"" help:"Run the dashboard web server."`
	Summary   summaryCmd   `cmd:"" help:"Print the dashboard summary."`
	Customers customersCmd `cmd:"" help:"Browse customers."`
	Campaigns campaignsCmd `cmd:"" help:"List and manage retention campaigns."`
	Predict   predictCmd   `cmd:"" help:"Predict churn risk for a feature vector."`
	Health    healthCmd    `cmd:"" help:"Check backend health."`
	Manifest  manifestCmd  `cmd:"" help:"Create or check navigation manifests."`
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	ctx := kong.Parse(&app,
		kong.Name("churnboard"),
		kong.Description("Customer churn analytics dashboard and backend tooling."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// config loads the environment and applies command line overrides.
func (g *Globals) config() (config.Config, error) {
	cfg, err := config.Load(g.EnvFile...)
	if err != nil {
		return config.Config{}, err
	}
	if g.APIURL != "" {
		cfg.APIURL = g.APIURL
	}
	if g.Env != "" {
		cfg.Environment = g.Env
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Mock {
		cfg.Mock = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// backend returns the churn API client selected by cfg.
func backend(cfg config.Config) (churnapi.Client, error) {
	if cfg.Mock {
		return churnapi.NewMockClient(churnapi.DemoData()), nil
	}
	client, err := churnapi.NewHTTPClient(churnapi.HTTPConfig{
		BaseURL:    cfg.APIBaseURL(),
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		RateLimit:  rate.Limit(cfg.RateLimit),
		Burst:      cfg.RateBurst,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "churnboard: backend client")
	}
	return client, nil
}

func (g *Globals) setup() (config.Config, churnapi.Client, error) {
	cfg, err := g.config()
	if err != nil {
		return config.Config{}, nil, err
	}
	client, err := backend(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, client, nil
}

func (g *Globals) printer() *printer {
	return newPrinter(os.Stdout, g.JSON)
}

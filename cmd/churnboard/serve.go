package main

import (
	"context"
	"errors"
	"os"
	"time"

	core "github.com/goliatone/go-churnboard/components/churnboard"
	churnboardpkg "github.com/goliatone/go-churnboard/pkg/churnboard"
	"github.com/goliatone/go-churnboard/pkg/config"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	Addr string `help:"Listen address. Defaults to CHURNBOARD_ADDR."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, client, err := g.setup()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	logger := cfg.NewLogger(os.Stderr)

	manifest, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		return err
	}

	telemetry := core.NewLogTelemetry(logger)
	hook := core.NewBroadcastHook()
	defer hook.Close()

	charts := core.NewChartRenderer(
		core.WithChartCache(core.NewChartCache(cfg.ChartCacheTTL)),
		core.WithChartTheme(cfg.ChartTheme),
		core.WithChartAssetsHost(cfg.ChartAssetsHost),
	)
	sessions := churnboardpkg.NewSessionStore(churnboardpkg.SessionOptions{
		Backend:   client,
		Charts:    charts,
		Telemetry: telemetry,
		Manifest:  manifest,
		Hook:      hook,
	})

	streamCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	app, err := churnboardpkg.NewApp(churnboardpkg.RouteConfig{
		Sessions:      sessions,
		Controller:    core.NewController(core.ControllerOptions{Renderer: renderer, Manifest: manifest}),
		Health:        client,
		Broadcast:     hook,
		Telemetry:     telemetry,
		StreamContext: streamCtx,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("api", cfg.APIBaseURL()).
		Str("env", cfg.Environment).
		Bool("mock", cfg.Mock).
		Str("manifest", manifest.Source).
		Msg("starting churnboard")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.Listen(cfg.Addr)
	})
	group.Go(func() error {
		pruneSessions(groupCtx, sessions, cfg.SessionIdle, logger)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		cancelStreams()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadManifest(cfg config.Config) (*core.Manifest, error) {
	if cfg.ManifestPath == "" {
		return core.DefaultManifest(), nil
	}
	return core.ReadManifest(cfg.ManifestPath)
}

// pruneSessions drops idle viewer sessions until ctx is done.
func pruneSessions(ctx context.Context, sessions *churnboardpkg.SessionStore, idle time.Duration, logger zerolog.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Prune(idle); removed > 0 {
				logger.Debug().Int("removed", removed).Int("live", sessions.Len()).Msg("pruned idle sessions")
			}
		}
	}
}

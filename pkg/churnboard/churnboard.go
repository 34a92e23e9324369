// Package churnboard re-exports the dashboard core for hosts that embed the
// pages into their own Fiber application.
package churnboard

import (
	"github.com/gofiber/fiber/v2"
	core "github.com/goliatone/go-churnboard/components/churnboard"
	"github.com/goliatone/go-churnboard/components/churnboard/httpapi"
)

// SessionStore exposes the per-viewer page state registry.
type SessionStore = core.SessionStore

// SessionOptions re-export for convenience.
type SessionOptions = core.SessionOptions

// RouteConfig wires the HTTP surface.
type RouteConfig = httpapi.Config

// NewSessionStore proxies to the core constructor.
func NewSessionStore(opts SessionOptions) *SessionStore {
	return core.NewSessionStore(opts)
}

// NewApp builds a standalone Fiber app serving the dashboard.
func NewApp(cfg RouteConfig) (*fiber.App, error) {
	return httpapi.NewApp(cfg)
}

// Mount registers the dashboard routes on an existing router. Routes and
// redirects are absolute, so mount at the application root.
func Mount(router fiber.Router, cfg RouteConfig) error {
	return httpapi.Register(router, cfg)
}

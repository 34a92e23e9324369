package churnboard

import (
	"errors"
	"fmt"
	"io"
)

const defaultLayoutTemplate = "layout"

// Chrome is the per-request state of the navigation shell.
type Chrome struct {
	Path          string
	Health        *Health
	Notifications int
}

// ControllerOptions wires the controller.
type ControllerOptions struct {
	Renderer Renderer
	Manifest *Manifest
	Layout   string
}

// Controller renders a routed page inside the navigation shell.
type Controller struct {
	renderer Renderer
	manifest *Manifest
	layout   string
}

// NewController applies defaults and returns a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Manifest == nil {
		opts.Manifest = DefaultManifest()
	}
	if opts.Layout == "" {
		opts.Layout = defaultLayoutTemplate
	}
	return &Controller{renderer: opts.Renderer, manifest: opts.Manifest, layout: opts.Layout}
}

// Render writes page wrapped in the layout to out.
func (c *Controller) Render(page string, view ViewData, chrome Chrome, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("churnboard: controller requires a renderer")
	}
	body, err := c.renderer.Render(page, map[string]any(view))
	if err != nil {
		return fmt.Errorf("churnboard: render %s: %w", page, err)
	}
	if _, err := c.renderer.Render(c.layout, map[string]any(c.ShellView(body, chrome)), out); err != nil {
		return fmt.Errorf("churnboard: render layout: %w", err)
	}
	return nil
}

// ShellView builds the layout payload around rendered page content.
func (c *Controller) ShellView(content string, chrome Chrome) ViewData {
	active := c.manifest.ActiveNav(chrome.Path)
	nav := make([]ViewData, 0, len(c.manifest.Navigation))
	for _, item := range c.manifest.Navigation {
		nav = append(nav, ViewData{
			"path":   item.Path,
			"label":  item.Label,
			"icon":   item.Icon,
			"active": item.Path == active.Path,
		})
	}
	view := ViewData{
		"title":         c.manifest.Title,
		"heading":       active.Label,
		"nav":           nav,
		"content":       content,
		"notifications": chrome.Notifications,
	}
	if chrome.Health != nil {
		view["health"] = ViewData{
			"healthy":      chrome.Health.Healthy(),
			"status":       chrome.Health.Status,
			"model_loaded": chrome.Health.ModelLoaded,
		}
	}
	return view
}

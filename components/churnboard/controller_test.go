package churnboard

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	calls    []string
	payloads map[string]map[string]any
	err      error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.calls = append(r.calls, name)
	if r.payloads == nil {
		r.payloads = map[string]map[string]any{}
	}
	if payload, ok := data.(map[string]any); ok {
		r.payloads[name] = payload
	}
	if r.err != nil {
		return "", r.err
	}
	html := "<" + name + ">"
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte(html))
	}
	return html, nil
}

func TestControllerRendersPageInsideLayout(t *testing.T) {
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Renderer: renderer})

	var buf bytes.Buffer
	health := Health{Status: "healthy", ModelLoaded: true}
	err := controller.Render(PageCustomers, ViewData{"page": PageCustomers}, Chrome{Path: "/customers/42", Health: &health, Notifications: 3}, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{PageCustomers, defaultLayoutTemplate}, renderer.calls)
	assert.Equal(t, "<layout>", buf.String())

	shell := renderer.payloads[defaultLayoutTemplate]
	assert.Equal(t, "<customers>", shell["content"])
	assert.Equal(t, "Customers", shell["heading"])
	assert.Equal(t, 3, shell["notifications"])
	assert.Equal(t, true, shell["health"].(ViewData)["healthy"])

	active := 0
	for _, item := range shell["nav"].([]ViewData) {
		if item["active"] == true {
			active++
			assert.Equal(t, "/customers", item["path"])
		}
	}
	assert.Equal(t, 1, active)
}

func TestControllerShellDefaultsToFirstEntry(t *testing.T) {
	controller := NewController(ControllerOptions{})
	view := controller.ShellView("", Chrome{Path: "/unknown"})
	assert.Equal(t, "Dashboard", view["heading"])
	assert.NotContains(t, view, "health")
}

func TestControllerErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewController(ControllerOptions{}).Render(PageDashboard, ViewData{}, Chrome{}, &buf))

	renderer := &stubRenderer{err: errors.New("template missing")}
	err := NewController(ControllerOptions{Renderer: renderer}).Render(PageDashboard, ViewData{}, Chrome{}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template missing")
}

func TestTemplateRendererLoadsEmbeddedTemplates(t *testing.T) {
	t.Chdir(t.TempDir())

	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	controller := NewController(ControllerOptions{Renderer: renderer})
	require.NoError(t, controller.Render(PageCustomers, ViewData{"page": PageCustomers}, Chrome{Path: "/customers"}, &buf))
	assert.Contains(t, buf.String(), DefaultManifest().Title)
	assert.Contains(t, buf.String(), "<html")
}

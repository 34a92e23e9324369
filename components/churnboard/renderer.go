package churnboard

import (
	"embed"
	"fmt"
	"io"
	"io/fs"

	template "github.com/goliatone/go-template"
)

// Renderer describes the template renderer contract needed by the controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

//go:embed templates/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// templates. It never reads the working directory.
func NewTemplateRenderer() (Renderer, error) {
	templates, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("churnboard: embedded templates: %w", err)
	}
	return template.NewRenderer(
		template.WithFS(templates),
		template.WithExtension(".html"),
	)
}

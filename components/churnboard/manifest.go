package churnboard

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

//go:embed manifest.default.yaml
var defaultManifest []byte

// Manifest describes the static chrome of the dashboard: title, sidebar
// entries and the recommendation table.
type Manifest struct {
	Version         string          `json:"version" yaml:"version"`
	Title           string          `json:"title" yaml:"title"`
	Navigation      []NavItem       `json:"navigation" yaml:"navigation"`
	Recommendations Recommendations `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Source          string          `json:"-" yaml:"-"`
}

// NavItem is one sidebar entry.
type NavItem struct {
	Path  string `json:"path" yaml:"path"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// DefaultManifest returns the embedded manifest.
func DefaultManifest() *Manifest {
	doc, err := DecodeManifest(bytes.NewReader(defaultManifest))
	if err != nil {
		panic(fmt.Sprintf("churnboard: embedded manifest is invalid: %v", err))
	}
	doc.Source = "embedded"
	return doc
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("churnboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("churnboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc Manifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("churnboard: manifest is empty")
		}
		return nil, fmt.Errorf("churnboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *Manifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("churnboard: unsupported manifest version %q", doc.Version)
	}
	if len(doc.Navigation) == 0 {
		return fmt.Errorf("churnboard: manifest has no navigation entries")
	}
	seen := make(map[string]struct{}, len(doc.Navigation))
	for idx, item := range doc.Navigation {
		if !strings.HasPrefix(item.Path, "/") {
			return fmt.Errorf("churnboard: navigation entry at index %d needs an absolute path", idx)
		}
		if item.Label == "" {
			return fmt.Errorf("churnboard: navigation entry %s is missing a label", item.Path)
		}
		if _, exists := seen[item.Path]; exists {
			return fmt.Errorf("churnboard: manifest duplicates navigation path %s", item.Path)
		}
		seen[item.Path] = struct{}{}
	}
	return nil
}

func (doc *Manifest) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if doc.Title == "" {
		doc.Title = "Churn Analytics"
	}
	if len(doc.Recommendations) == 0 {
		doc.Recommendations = DefaultRecommendations()
	}
}

// ActiveNav returns the navigation entry matching path. Nested paths match
// their section, so /customers/42 selects /customers.
func (doc *Manifest) ActiveNav(path string) NavItem {
	var best NavItem
	for _, item := range doc.Navigation {
		if item.Path == path {
			return item
		}
		if item.Path != "/" && strings.HasPrefix(path, item.Path+"/") && len(item.Path) > len(best.Path) {
			best = item
		}
	}
	if best.Path == "" && len(doc.Navigation) > 0 {
		return doc.Navigation[0]
	}
	return best
}

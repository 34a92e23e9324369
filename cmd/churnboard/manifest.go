package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	"gopkg.in/yaml.v3"
)

type manifestCmd struct {
	Init  manifestInitCmd  `cmd:"" help:"Write the built-in manifest to a file for editing."`
	Check manifestCheckCmd `cmd:"" help:"Validate a manifest file and list its navigation."`
}

type manifestInitCmd struct {
	Path      string `arg:"" help:"Destination file." default:"churnboard.yaml"`
	Overwrite bool   `help:"Replace an existing file."`
}

func (cmd *manifestInitCmd) Run(ctx context.Context) error {
	if _, err := os.Stat(cmd.Path); err == nil && !cmd.Overwrite {
		return fmt.Errorf("churnboard: manifest %s already exists (use --overwrite)", cmd.Path)
	}
	if err := writeManifest(cmd.Path, churnboard.DefaultManifest()); err != nil {
		return err
	}
	fmt.Printf("Wrote manifest to %s\n", cmd.Path)
	return nil
}

type manifestCheckCmd struct {
	Path string `arg:"" help:"Manifest file." type:"existingfile"`
}

func (cmd *manifestCheckCmd) Run(ctx context.Context, g *Globals) error {
	doc, err := churnboard.ReadManifest(cmd.Path)
	if err != nil {
		return err
	}
	out := g.printer()
	return out.emit(doc, func(_ io.Writer) {
		rows := make([][]string, 0, len(doc.Navigation))
		for _, item := range doc.Navigation {
			rows = append(rows, []string{item.Path, item.Label, item.Icon})
		}
		out.table([]string{"PATH", "LABEL", "ICON"}, rows)
	})
}

func writeManifest(path string, doc *churnboard.Manifest) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("churnboard: mkdir %s: %w", dir, err)
		}
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("churnboard: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("churnboard: write manifest: %w", err)
	}
	return nil
}

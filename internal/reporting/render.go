package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"gopkg.in/yaml.v3"
)

// Renderer writes a document in one output format.
type Renderer interface {
	Extension() string
	Render(w io.Writer, doc *Document) error
}

var renderers = map[string]Renderer{
	"json": jsonRenderer{},
	"yaml": yamlRenderer{},
	"html": htmlRenderer{},
	"xlsx": xlsxRenderer{},
}

// Formats lists the supported output formats.
func Formats() []string {
	return []string{"html", "json", "xlsx", "yaml"}
}

func RendererFor(format string) (Renderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "yml" {
		format = "yaml"
	}
	r, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return r, nil
}

// ParseFormats splits a comma separated list, validating and de-duplicating it.
func ParseFormats(raw string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "yml" {
			part = "yaml"
		}
		if _, err := RendererFor(part); err != nil {
			return nil, err
		}
		if seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out, nil
}

// Write renders the report once per format into outDir as <run_id>.<ext>
// and returns the written paths in format order.
func Write(report *engine.Report, outDir string, formats []string) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("reporting.Write: nil report")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("reporting.Write: %w", err)
	}
	doc := NewDocument(report)

	var paths []string
	for _, format := range formats {
		r, err := RendererFor(format)
		if err != nil {
			return paths, err
		}
		path, err := writeFile(filepath.Join(outDir, report.RunID+"."+r.Extension()), r, doc)
		if err != nil {
			return paths, fmt.Errorf("reporting.Write %s: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, r Renderer, doc *Document) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := r.Render(f, doc); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

type jsonRenderer struct{}

func (jsonRenderer) Extension() string { return "json" }

func (jsonRenderer) Render(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type yamlRenderer struct{}

func (yamlRenderer) Extension() string { return "yaml" }

func (yamlRenderer) Render(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Package export renders the prompt catalog as a Markdown, YAML or JSON
// document, with optional custom Markdown templates.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/placeholders"
	"github.com/chazuruo/pdeck/internal/view"
)

// Format represents the export format.
type Format string

const (
	// FormatMarkdown exports as Markdown.
	FormatMarkdown Format = "md"
	// FormatYAML exports as YAML.
	FormatYAML Format = "yaml"
	// FormatJSON exports as JSON.
	FormatJSON Format = "json"
)

// ParseFormat accepts md, markdown, yaml, yml and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// OrphanSection names the section holding prompts whose category is gone.
const OrphanSection = "Uncategorized"

// Document is the exported catalog.
type Document struct {
	Generated time.Time `json:"generated" yaml:"generated"`
	Query     string    `json:"query,omitempty" yaml:"query,omitempty"`
	Sections  []Section `json:"sections" yaml:"sections"`
}

// Section is one category and its prompts.
type Section struct {
	CategoryID models.ID `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Name       string    `json:"name" yaml:"name"`
	Prompts    []Entry   `json:"prompts" yaml:"prompts"`
}

// Entry is one exported prompt.
type Entry struct {
	ID        models.ID `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Variables []string  `json:"variables,omitempty" yaml:"variables,omitempty"`
	Updated   time.Time `json:"updated,omitzero" yaml:"updated,omitempty"`
}

// Build turns derived groups and orphaned prompts into a Document. Empty
// categories are kept so the document mirrors the catalog layout.
func Build(groups []view.Group, orphans []models.Prompt, q models.SearchQuery, now time.Time) Document {
	doc := Document{Generated: now, Sections: make([]Section, 0, len(groups)+1)}
	if !q.Blank() {
		doc.Query = strings.TrimSpace(q.Text)
	}
	for _, g := range groups {
		doc.Sections = append(doc.Sections, Section{
			CategoryID: g.Category.ID,
			Name:       g.Category.Name,
			Prompts:    entries(g.Prompts),
		})
	}
	if len(orphans) > 0 {
		doc.Sections = append(doc.Sections, Section{Name: OrphanSection, Prompts: entries(orphans)})
	}
	return doc
}

func entries(ps []models.Prompt) []Entry {
	out := make([]Entry, len(ps))
	for i, p := range ps {
		out[i] = Entry{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Tags:      p.TagNames(),
			Variables: placeholders.Extract(p.Content),
			Updated:   p.UpdatedAt.Time,
		}
		if len(out[i].Variables) == 0 {
			out[i].Variables = nil
		}
	}
	return out
}

// Count returns the number of prompts in the document.
func (d Document) Count() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Prompts)
	}
	return n
}

// Exporter writes Documents in one format.
type Exporter struct {
	format   Format
	template *template.Template
}

// Options contains export options.
type Options struct {
	Format Format

	// CustomTemplate is a text/template file used instead of the built-in
	// Markdown layout. Relative names are also looked up under TemplateDir.
	CustomTemplate string
	TemplateDir    string
}

// NewExporter creates a new exporter.
func NewExporter(opts Options) (*Exporter, error) {
	e := &Exporter{format: opts.Format}

	switch opts.Format {
	case FormatMarkdown:
		tmpl, err := loadTemplate(opts.CustomTemplate, opts.TemplateDir)
		if err != nil {
			return nil, err
		}
		e.template = tmpl
	case FormatYAML, FormatJSON:
		if opts.CustomTemplate != "" {
			return nil, fmt.Errorf("templates only apply to the md format")
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}
	return e, nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"fence": func(s string) string {
		fence := "```"
		for strings.Contains(s, fence) {
			fence += "`"
		}
		return fence
	},
}

func loadTemplate(customPath, dir string) (*template.Template, error) {
	if customPath == "" {
		return template.New("export").Funcs(funcs).Parse(builtinMarkdownTemplate)
	}

	path := customPath
	if !filepath.IsAbs(path) && dir != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			candidate := filepath.Join(dir, filepath.Base(path))
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	return template.New(filepath.Base(path)).Funcs(funcs).Parse(string(data))
}

// Export writes doc to w.
func (e *Exporter) Export(w io.Writer, doc Document) error {
	switch e.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	}

	var buf bytes.Buffer
	if err := e.template.Execute(&buf, doc); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ExportToFile writes doc to path, creating parent directories.
func (e *Exporter) ExportToFile(doc Document, path string) error {
	var buf bytes.Buffer
	if err := e.Export(&buf, doc); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// builtinMarkdownTemplate is the default Markdown layout.
const builtinMarkdownTemplate = `# Prompt catalog
{{if .Query}}
Search: "{{.Query}}"
{{end}}
{{- range .Sections}}
## {{.Name}}
{{if not .Prompts}}
_No prompts._
{{end}}
{{- range .Prompts}}
### {{.Title}} (#{{.ID}})
{{if .Tags}}
**Tags:** {{join .Tags ", "}}
{{end}}
{{- if .Variables}}
**Variables:** {{join .Variables ", "}}
{{end}}
{{$f := fence .Content}}{{$f}}
{{.Content}}
{{$f}}
{{end}}
{{- end}}
---
*Generated by pdeck on {{date .Generated}}*
`

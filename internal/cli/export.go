package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/config"
	"github.com/chazuruo/pdeck/internal/export"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/view"
)

// ExportOptions contains the options for the export command.
type ExportOptions struct {
	Format   string
	Out      string
	Template string
	Search   string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to Markdown, YAML or JSON",
		Long: `Export every prompt, grouped by category, as one document.

Markdown output can use a custom text/template file with --template.
Relative template names are also looked up in ~/.config/pdeck/templates/.

Examples:
  pdeck export > prompts.md
  pdeck export --format yaml --out backup/prompts.yaml
  pdeck export --search review --template cheatsheet.tmpl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "md", "output format (md, yaml, json)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Template, "template", "", "custom Markdown template file")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "only export prompts matching this search")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	exporter, err := export.NewExporter(export.Options{
		Format:         format,
		CustomTemplate: opts.Template,
		TemplateDir:    templateDir(),
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	q := models.SearchQuery{Text: opts.Search}
	if !q.Blank() {
		if _, err := sess.store.RefreshPrompts(ctx, q); err != nil {
			return fmt.Errorf("failed to search prompts: %w", err)
		}
	}

	prompts, categories := sess.store.Prompts(), sess.store.Categories()
	doc := export.Build(view.Derive(prompts, categories, q), view.Orphans(prompts, categories), q, time.Now())

	if opts.Out == "" || opts.Out == "-" {
		return exporter.Export(cmd.OutOrStdout(), doc)
	}
	if err := exporter.ExportToFile(doc, opts.Out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d prompt(s) to %s\n", doc.Count(), opts.Out)
	return nil
}

func templateDir() string {
	path := config.DefaultConfigPath()
	if path == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "templates")
}

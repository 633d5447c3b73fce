package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/view"
)

// OutputFormat defines the output format for listing commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatPlain OutputFormat = "plain"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatPlain:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be table, json, yaml, or plain)", s)
}

// ListOptions contains the options for the list command.
type ListOptions struct {
	Search   string
	Category string
	Tag      string
	Format   string
}

// NewListCommand creates the list command for listing prompts.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts grouped by category",
		Long: `List prompts in category order.

Prompts can be filtered by:
- --search: Server-side search over title and content
- --category: Only show one category (id or name)
- --tag: Only show prompts carrying a tag (id or name)
- --format: Output format (table, json, yaml, plain)

Prompts whose category no longer exists are listed last.

Examples:
  pdeck list                      # List all prompts in table format
  pdeck list --search email       # Prompts mentioning "email"
  pdeck list --category Writing   # Prompts in the Writing category
  pdeck list --tag urgent         # Prompts tagged urgent
  pdeck list --format json        # List prompts in JSON format`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "search text")
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "only show this category (id or name)")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "only show prompts with this tag (id or name)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "output format (table, json, yaml, plain)")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	format, err := parseFormat(opts.Format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	return listPrompts(ctx, cmd.OutOrStdout(), sess.store, opts, format)
}

func listPrompts(ctx context.Context, w io.Writer, store *catalog.Store, opts *ListOptions, format OutputFormat) error {
	q := models.SearchQuery{Text: opts.Search}
	if !q.Blank() {
		if _, err := store.RefreshPrompts(ctx, q); err != nil {
			return fmt.Errorf("failed to search prompts: %w", err)
		}
	}

	categories := store.Categories()
	prompts := store.Prompts()

	if opts.Category != "" {
		c, err := catalog.MatchCategory(categories, opts.Category)
		if err != nil {
			return err
		}
		categories = []models.Category{c}
		prompts = catalog.PromptsInCategory(prompts, c.ID)
	}
	if opts.Tag != "" {
		t, err := catalog.MatchTag(store.Tags(), opts.Tag)
		if err != nil {
			return err
		}
		prompts = catalog.PromptsWithTag(prompts, t.ID)
	}

	groups := view.Derive(prompts, categories, q)
	rows := view.Flatten(groups)
	if opts.Category == "" {
		rows = append(rows, view.Orphans(prompts, categories)...)
	}

	names := make(map[models.ID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	switch format {
	case FormatJSON:
		return printJSON(w, rows)
	case FormatYAML:
		return printYAML(w, rows)
	case FormatPlain:
		printPlain(w, rows, names)
	default:
		printTable(w, rows, names, time.Now())
	}
	return nil
}

// printTable prints prompts in table format.
func printTable(w io.Writer, rows []models.Prompt, categories map[models.ID]string, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No prompts found.")
		return
	}

	tbl := table.New("ID", "TITLE", "CATEGORY", "TAGS", "UPDATED").WithWriter(w)
	for _, p := range rows {
		tbl.AddRow(p.ID, p.Title, orDash(categories[p.CategoryID]), orDash(strings.Join(p.TagNames(), ", ")), formatTimeAgo(now, p.UpdatedAt.Time))
	}
	tbl.Print()

	fmt.Fprintf(w, "\nTotal: %d prompt(s)\n", len(rows))
}

// printJSON prints prompts in JSON format.
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printYAML prints prompts in YAML format.
func printYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// printPlain prints prompts in plain text format.
func printPlain(w io.Writer, rows []models.Prompt, categories map[models.ID]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No prompts found.")
		return
	}

	for _, p := range rows {
		fmt.Fprintf(w, "%d. %s\n", p.ID, p.Title)
		fmt.Fprintf(w, "   Category: %s\n", orDash(categories[p.CategoryID]))
		if names := p.TagNames(); len(names) > 0 {
			fmt.Fprintf(w, "   Tags: %s\n", strings.Join(names, ", "))
		}
		if !p.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "   Updated: %s\n", p.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d prompt(s)\n", len(rows))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatTimeAgo formats t relative to now as a "time ago" string.
func formatTimeAgo(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	if diff < 30*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	if diff < 365*24*time.Hour {
		return fmt.Sprintf("%dmo ago", int(diff.Hours()/24/30))
	}
	return fmt.Sprintf("%dy ago", int(diff.Hours()/24/365))
}

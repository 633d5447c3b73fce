package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/placeholders"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// ShowOptions contains the options for the show command.
type ShowOptions struct {
	Set     []string
	Copy    bool
	Content bool
	Format  string
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a prompt",
		Long: `Show a prompt with its category, tags and content.

Content may contain {{name}} variables. Fill them with --set name=value;
every variable must be given a value once any --set is used.

Examples:
  pdeck show 12
  pdeck show 12 --set tone=formal --set audience=execs
  pdeck show 12 --content --copy     # copy the raw content to the clipboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "fill a {{name}} variable (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "copy the (filled) content to the clipboard")
	cmd.Flags().BoolVar(&opts.Content, "content", false, "print only the content")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "plain", "output format (plain, json, yaml)")

	return cmd
}

func runShow(cmd *cobra.Command, arg string, opts *ShowOptions) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	format, err := parseFormat(opts.Format)
	if err != nil {
		return err
	}
	values, err := placeholders.ParseAssignments(opts.Set)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, ok := sess.store.Prompt(id)
	if !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}

	if len(opts.Set) > 0 {
		content, err := placeholders.Substitute(p.Content, values)
		if err != nil {
			return err
		}
		p.Content = content
	}

	w := cmd.OutOrStdout()
	if opts.Copy {
		if err := copyToClipboard(p.Content); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "✓ Copied content to clipboard")
	}

	switch {
	case opts.Content:
		fmt.Fprintln(w, p.Content)
		return nil
	case format == FormatJSON:
		return printJSON(w, p)
	case format == FormatYAML:
		return printYAML(w, p)
	}

	category := ""
	if c, ok := sess.store.Category(p.CategoryID); ok {
		category = c.Name
	}
	printPrompt(w, p, category)
	return nil
}

func printPrompt(w io.Writer, p models.Prompt, category string) {
	fmt.Fprintf(w, "%s (#%d)\n", p.Title, p.ID)
	fmt.Fprintf(w, "Category: %s\n", orDash(category))
	fmt.Fprintf(w, "Tags: %s\n", orDash(strings.Join(p.TagNames(), ", ")))
	if vars := placeholders.Extract(p.Content); len(vars) > 0 {
		fmt.Fprintf(w, "Variables: %s\n", strings.Join(vars, ", "))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Content)
}

// parseID parses a positive prompt id.
func parseID(s string) (models.ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, &pdeckerrors.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a positive integer", s)}
	}
	return models.ID(n), nil
}

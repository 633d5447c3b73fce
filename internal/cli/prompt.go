package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/catalog"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
)

// PromptOptions contains the draft flags shared by create and edit.
type PromptOptions struct {
	Title     string
	Content   string
	File      string
	Category  string
	Tags      []string
	ClearTags bool
}

// promptForm asks for a draft interactively. Tests replace it.
var promptForm = runPromptForm

func addPromptFlags(cmd *cobra.Command, opts *PromptOptions) {
	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "prompt title")
	cmd.Flags().StringVar(&opts.Content, "content", "", "prompt content")
	cmd.Flags().StringVar(&opts.File, "file", "", "read content from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "category id or name")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tag id or name (repeatable; replaces existing tags)")
	cmd.Flags().BoolVar(&opts.ClearTags, "clear-tags", false, "remove all tags")
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	opts := &PromptOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prompt",
		Long: `Create a prompt.

Without flags an interactive form asks for title, content, category and tags.
With --no-tui or any draft flag the prompt is built from flags alone.

Examples:
  pdeck create
  pdeck create --title "Summarize" --content "Summarize {{text}}" --category Writing --tag short
  pbpaste | pdeck create --title "From clipboard" --file - --category 1`,
		Aliases: []string{"new", "add"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}
	addPromptFlags(cmd, opts)
	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	opts := &PromptOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a prompt",
		Long: `Edit a prompt.

Only the fields given as flags change. Without flags an interactive form
opens prefilled with the current values.

Examples:
  pdeck edit 12 --title "Summarize (short)"
  pdeck edit 12 --tag review --tag short
  pdeck edit 12 --clear-tags`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], opts)
		},
	}
	addPromptFlags(cmd, opts)
	return cmd
}

func runCreate(cmd *cobra.Command, opts *PromptOptions) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	base := models.Draft{TagIDs: []models.ID{}}
	if cats := sess.store.Categories(); len(cats) > 0 && interactive(cmd) {
		base.CategoryID = cats[0].ID
	}

	d, err := resolveDraft(cmd, base, opts, sess.store)
	if err != nil {
		return err
	}

	p, err := sess.store.CreatePrompt(ctx, d)
	if p.ID == 0 {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created prompt #%d %q\n", p.ID, p.Title)
	warnRefresh(cmd, err)
	return nil
}

func runEdit(cmd *cobra.Command, arg string, opts *PromptOptions) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	current, ok := sess.store.Prompt(id)
	if !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}

	d, err := resolveDraft(cmd, models.DraftOf(current), opts, sess.store)
	if err != nil {
		return err
	}

	p, err := sess.store.UpdatePrompt(ctx, id, d)
	if p.ID == 0 {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated prompt #%d %q\n", p.ID, p.Title)
	warnRefresh(cmd, err)
	return nil
}

// interactive reports whether the form should be used instead of flags.
func interactive(cmd *cobra.Command) bool {
	if IsNoTUI() {
		return false
	}
	for _, name := range []string{"title", "content", "file", "category", "tag", "clear-tags"} {
		if cmd.Flags().Changed(name) {
			return false
		}
	}
	return true
}

// resolveDraft applies flags, or the interactive form, on top of base.
func resolveDraft(cmd *cobra.Command, base models.Draft, opts *PromptOptions, store *catalog.Store) (models.Draft, error) {
	if interactive(cmd) {
		d := base
		if err := promptForm(&d, store.Categories(), store.Tags()); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return models.Draft{}, fmt.Errorf("form: %w", pdeckerrors.ErrCanceled)
			}
			return models.Draft{}, fmt.Errorf("form error: %w", err)
		}
		return d, nil
	}

	d := base
	flags := cmd.Flags()
	if flags.Changed("title") {
		d.Title = opts.Title
	}
	if flags.Changed("content") {
		d.Content = opts.Content
	}
	if opts.File != "" {
		content, err := readContent(cmd.InOrStdin(), opts.File)
		if err != nil {
			return models.Draft{}, err
		}
		d.Content = content
	}
	if flags.Changed("category") {
		c, err := catalog.MatchCategory(store.Categories(), opts.Category)
		if err != nil {
			return models.Draft{}, err
		}
		d.CategoryID = c.ID
	}
	if opts.ClearTags {
		d.TagIDs = []models.ID{}
	}
	if flags.Changed("tag") {
		ids, err := catalog.MatchTags(store.Tags(), opts.Tags)
		if err != nil {
			return models.Draft{}, err
		}
		d.TagIDs = ids
	}
	return d, nil
}

func readContent(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// runPromptForm edits d with a huh form.
func runPromptForm(d *models.Draft, categories []models.Category, tags []models.Tag) error {
	if len(categories) == 0 {
		return &pdeckerrors.ValidationError{Field: "category", Reason: "no categories exist; add one with 'pdeck category add'"}
	}

	catOptions := make([]huh.Option[models.ID], len(categories))
	for i, c := range categories {
		catOptions[i] = huh.NewOption(c.Name, c.ID)
	}
	tagOptions := make([]huh.Option[models.ID], len(tags))
	for i, t := range tags {
		tagOptions[i] = huh.NewOption(t.Name, t.ID)
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Value(&d.Title).
			Validate(notBlank("title")),
		huh.NewText().
			Title("Content").
			Description("Use {{name}} for variables").
			Value(&d.Content).
			Validate(notBlank("content")),
		huh.NewSelect[models.ID]().
			Title("Category").
			Options(catOptions...).
			Value(&d.CategoryID),
	}
	if len(tagOptions) > 0 {
		fields = append(fields, huh.NewMultiSelect[models.ID]().
			Title("Tags").
			Options(tagOptions...).
			Filterable(true).
			Value(&d.TagIDs))
	}

	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// warnRefresh reports a failed refresh after a mutation that went through.
func warnRefresh(cmd *cobra.Command, err error) {
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: saved, but refreshing the catalog failed: %v\n", err)
	}
}

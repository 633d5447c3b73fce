package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/models"
)

// collection describes one curated list (categories or tags) so both
// command groups share an implementation.
type collection struct {
	kind   string
	plural string
	list   func(*catalog.Store) []models.Category
	usage  func([]models.Prompt) map[models.ID]int
	match  func(*catalog.Store, string) (models.ID, string, error)
	create func(context.Context, *catalog.Store, string) (models.ID, string, error)
	remove func(context.Context, *catalog.Store, models.ID) error
}

var categoryCollection = collection{
	kind:   "category",
	plural: "categories",
	list:   (*catalog.Store).Categories,
	usage:  catalog.CategoryUsage,
	match: func(s *catalog.Store, ref string) (models.ID, string, error) {
		c, err := catalog.MatchCategory(s.Categories(), ref)
		return c.ID, c.Name, err
	},
	create: func(ctx context.Context, s *catalog.Store, name string) (models.ID, string, error) {
		c, err := s.CreateCategory(ctx, name)
		return c.ID, c.Name, err
	},
	remove: func(ctx context.Context, s *catalog.Store, id models.ID) error {
		return s.DeleteCategory(ctx, id)
	},
}

var tagCollection = collection{
	kind:   "tag",
	plural: "tags",
	list: func(s *catalog.Store) []models.Category {
		ts := s.Tags()
		out := make([]models.Category, len(ts))
		for i, t := range ts {
			out[i] = models.Category{ID: t.ID, Name: t.Name}
		}
		return out
	},
	usage: catalog.TagUsage,
	match: func(s *catalog.Store, ref string) (models.ID, string, error) {
		t, err := catalog.MatchTag(s.Tags(), ref)
		return t.ID, t.Name, err
	},
	create: func(ctx context.Context, s *catalog.Store, name string) (models.ID, string, error) {
		t, err := s.CreateTag(ctx, name)
		return t.ID, t.Name, err
	},
	remove: func(ctx context.Context, s *catalog.Store, id models.ID) error {
		return s.DeleteTag(ctx, id)
	},
}

// NewCategoryCommand creates the category command group.
func NewCategoryCommand() *cobra.Command {
	return newCollectionCommand(categoryCollection, `Manage categories.

Every prompt belongs to one category. Deleting a category never deletes
prompts; they stay in the collection without a category until edited.`)
}

// NewTagCommand creates the tag command group.
func NewTagCommand() *cobra.Command {
	return newCollectionCommand(tagCollection, `Manage tags.

Deleting a tag removes it from every prompt that carried it.`)
}

func newCollectionCommand(c collection, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.kind,
		Short: fmt.Sprintf("Manage %s", c.plural),
		Long:  long,
	}

	var format string
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   fmt.Sprintf("List %s with prompt counts", c.plural),
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			sess, err := openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer sess.Close()
			return printCollection(cmd.OutOrStdout(), c, sess.store, f)
		},
	}
	listCmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml, plain)")

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Create a %s", c.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, name, err := c.create(ctx, sess.store, args[0])
			if id == 0 {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s #%d %q\n", c.kind, id, name)
			warnRefresh(cmd, err)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id|name>",
		Short:   fmt.Sprintf("Delete a %s", c.kind),
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, name, err := c.match(sess.store, args[0])
			if err != nil {
				return err
			}
			err = c.remove(ctx, sess.store, id)
			if err != nil && !catalog.IsRefreshError(err) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s #%d %q\n", c.kind, id, name)
			warnRefresh(cmd, err)
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, rmCmd)
	return cmd
}

// collectionRow is the serialized form of a category or tag with its usage.
type collectionRow struct {
	ID      models.ID `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Prompts int       `json:"prompts" yaml:"prompts"`
}

func printCollection(w io.Writer, c collection, store *catalog.Store, format OutputFormat) error {
	usage := c.usage(store.Prompts())
	items := c.list(store)
	rows := make([]collectionRow, len(items))
	for i, it := range items {
		rows[i] = collectionRow{ID: it.ID, Name: it.Name, Prompts: usage[it.ID]}
	}

	switch format {
	case FormatJSON:
		return printJSON(w, rows)
	case FormatYAML:
		return printYAML(w, rows)
	case FormatPlain:
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%d\n", r.ID, r.Name, r.Prompts)
		}
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintf(w, "No %s found.\n", c.plural)
		return nil
	}
	tbl := table.New("ID", "NAME", "PROMPTS").WithWriter(w)
	for _, r := range rows {
		tbl.AddRow(r.ID, r.Name, r.Prompts)
	}
	tbl.Print()
	return nil
}
